// Package config loads configuration from an optional YAML file, an optional
// .env file and environment variables.
//
// It uses Viper for file and environment handling and godotenv for .env files.
// Environment variables take the form PREFIX_KEY, where PREFIX is the
// top-level section name upper-cased:
//
//	TESTSERVER_START_PORT=31000  ->  testserver.start_port
//
// # Usage
//
//	var cfg struct {
//	    Server server.Config `mapstructure:"testserver"`
//	}
//	err := config.LoadConfig("testserver", &cfg)
package config
