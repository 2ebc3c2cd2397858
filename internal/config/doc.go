// Package config loads gamewire.json, the settings file of the gamewire
// command.
//
// # Configuration File Structure
//
//	{
//	  "protocolVersion": 1,
//	  "typesFile": "types/v1.yaml",
//	  "listen": ":8080",
//	  "logLevel": "info",
//	  "packet": {
//	    "compress": true,
//	    "compressThreshold": 256,
//	    "maxPayload": 65535
//	  },
//	  "transport": {
//	    "readTimeout": "60s",
//	    "writeTimeout": "10s",
//	    "maxMessageSize": 65539
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "gamewire",
//	    "path": "/metrics"
//	  },
//	  "capture": {
//	    "dir": "captures",
//	    "s3Bucket": "",
//	    "s3Prefix": "",
//	    "s3Region": ""
//	  }
//	}
//
// Every field is optional. Missing fields take the values from New, and
// command-line flags override file values.
//
// # Usage
//
//	cfg, err := config.Resolve(ctx, "")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	types, err := cfg.Types()
//	codec := packet.NewCodec(cfg.CodecOptions(types)...)
package config
