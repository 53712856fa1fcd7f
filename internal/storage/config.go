package storage

import (
	"os"
	"strings"
)

// Mode selects the record backend
type Mode string

const (
	ModeFile   Mode = "file"
	ModeMemory Mode = "memory"
	ModeDynamo Mode = "dynamo"
	ModeNone   Mode = "none"
)

// Config holds storage configuration
type Config struct {
	Mode   Mode
	Dir    string // file mode
	Dynamo DynamoConfig
}

// DynamoConfig holds DynamoDB configuration
type DynamoConfig struct {
	Local    bool   // static local credentials + table auto-creation
	Endpoint string // for local mode
	Region   string
	Table    string
}

// LoadConfig loads storage config from environment
func LoadConfig() Config {
	mode := Mode(strings.ToLower(getEnv("STORE_MODE", string(ModeFile))))
	switch mode {
	case ModeFile, ModeMemory, ModeDynamo, ModeNone:
	default:
		mode = ModeFile
	}

	return Config{
		Mode: mode,
		Dir:  getEnv("STORE_DIR", "./data"),
		Dynamo: DynamoConfig{
			Local:    getEnv("DYNAMO_LOCAL", "false") == "true",
			Endpoint: getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
			Region:   getEnv("DYNAMO_REGION", "us-west-2"),
			Table:    getEnv("DYNAMO_TABLE", "teamops-state"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
