/*
Package config provides configuration management for docscan.

Configuration is assembled from three sources, later sources overriding
earlier ones:

 1. compiled-in defaults (NewDefault)
 2. a YAML file (LoadFromFile)
 3. environment variables (LoadFromEnv)

Environment variables:

	NODE_ENV, DOCSCAN_ENV                  environment (development, staging, uat, production, test)
	AWS_REGION                             storage region
	AWS_ENDPOINT                           S3-compatible endpoint override
	VIRUS_SCANNER_QUARANTINE_S3_BUCKET     bucket holding unscanned documents
	VIRUS_SCANNER_CLEAN_S3_BUCKET          bucket receiving clean documents
	DOCSCAN_LOG_LEVEL, DOCSCAN_LOG_FORMAT, DOCSCAN_LOG_FILE
	DOCSCAN_METRICS_ENABLED

Example file:

	environment: production
	storage:
	  region: ap-southeast-1
	  endpoint: https://<account>.r2.cloudflarestorage.com
	buckets:
	  quarantine: docs-quarantine
	  clean: docs-clean
	logging:
	  level: INFO
	  format: json

The development and test environments force path-style addressing and, when
no endpoint is set, point the storage client at a local emulator.
*/
package config
