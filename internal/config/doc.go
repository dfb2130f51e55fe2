// Package config loads storefront configuration.
//
// Configuration lives in storefront.json in the working directory. Every
// key can be overridden from the environment with the STOREFRONT_ prefix
// and dots replaced by underscores; keys are case-insensitive, so
// server.renderTimeout is STOREFRONT_SERVER_RENDERTIMEOUT.
//
// # Configuration File Structure
//
//	{
//	  "name": "Storefront",
//	  "baseUrl": "",
//	  "rootId": "root",
//	  "server": {"host": "localhost", "port": 8080, "renderTimeout": "5s"},
//	  "storage": {
//	    "backend": "s3",
//	    "key": "cart",
//	    "s3": {"bucket": "carts", "region": "us-east-1", "endpoint": "http://localhost:9000", "usePathStyle": true}
//	  },
//	  "toast": {"duration": "3s"},
//	  "catalog": {"path": "products.json", "watch": true},
//	  "log": {"level": "info", "format": "json"},
//	  "metrics": {"enabled": true, "namespace": "storefront"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
