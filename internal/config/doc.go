// Package config loads treepatch host and CLI configuration.
//
// Configuration lives in treepatch.yaml (or treepatch.yml / treepatch.json)
// in the working directory. Every field has a default, so a file only needs
// the settings it changes.
//
// # Configuration File Structure
//
//	server:
//	  addr: ":8080"
//	  pathPrefix: /
//	  title: treepatch
//	  maxBodyBytes: 1048576
//	render:
//	  pretty: false
//	  indent: "  "
//	  minify: false
//	applier:
//	  strictDescent: false
//	snapshot:
//	  backend: s3
//	  bucket: my-bucket
//	  prefix: snapshots/
//	  region: us-east-1
//	  endpoint: http://localhost:9000
//	  pathStyle: true
//	metrics:
//	  enabled: true
//	  namespace: treepatch
//	log:
//	  level: info
//
// Validate checks field constraints with go-playground/validator and
// reports failures using the file's own key names.
package config
