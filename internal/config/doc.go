// Package config loads observable.json, the configuration file read by the
// observable command.
//
// # Configuration File Structure
//
//	{
//	  "devtools": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "readOnly": false
//	  },
//	  "reactivity": {
//	    "enforceActions": "observed"
//	  },
//	  "log": {
//	    "level": "info",
//	    "spy": false
//	  },
//	  "tracing": {
//	    "enabled": true,
//	    "tracerName": "github.com/vango-dev/observable",
//	    "includeValues": false
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "observable"
//	  },
//	  "snapshot": {
//	    "backend": "s3",
//	    "bucket": "my-state",
//	    "prefix": "snapshots/",
//	    "region": "us-east-1",
//	    "endpoint": "http://localhost:9000"
//	  }
//	}
//
// Missing fields take the defaults returned by New. LoadFile validates the
// result and reports problems as *errors.Error values that point at the
// offending line when the file is not valid JSON.
package config
