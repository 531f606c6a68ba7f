// Package config provides configuration parsing for routekit projects.
//
// The configuration is stored in routekit.json or routekit.toml at the
// project root. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "manifest": "routes.toml",
//	  "strict": true,
//	  "log": {"level": "debug", "format": "json"},
//	  "transition": {
//	    "target": ".page",
//	    "class": "is-leaving",
//	    "timeout": "800ms"
//	  },
//	  "dev": {"port": 7070, "host": "localhost", "document": "index.html"},
//	  "metrics": {"namespace": "shop"},
//	  "s3": {"region": "eu-west-1"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Manifest:", cfg.ManifestPath())
package config
