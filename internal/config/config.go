package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/artfolio/marketplace-chain-sync/internal/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env        string
	Network    string
	Index      string
	Debug      bool
	LogPath    string
	HealthPort string

	Ledger        LedgerConfig
	ElasticSearch ElasticSearchConfig
	Aws           AwsConfig
}

type LedgerConfig struct {
	Url                string
	SettlementContract string
	AssetRegistry      string
	DeploymentBlock    uint64
	Timeout            int
	Debug              bool

	PollInterval  int
	ErrorCooldown int
	AuditInterval int
	AuditDelay    int
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	MappingDir       string
	BulkPersistCount int
	Refresh          string
}

type AwsConfig struct {
	AccessKey string
	SecretKey string
	Region    string
}

func Init(app string) {
	err := godotenv.Load(".env")

	initLogger(app)

	if err != nil {
		zap.L().Info("Config: no .env file, using process environment")
	}
}

func initLogger(app string) {
	log.NewLogger(Get().LogPath+"/"+app+".log", Get().Debug)
}

func Get() *Config {
	return &Config{
		Env:        getString("ENV", ""),
		Network:    getString("NETWORK", "mainnet"),
		Index:      getString("INDEX_NAME", "marketplace"),
		Debug:      getBool("DEBUG", false),
		LogPath:    getString("LOG_PATH", "./var"),
		HealthPort: getString("HEALTH_PORT", "8080"),
		Ledger: LedgerConfig{
			Url:                getString("LEDGER_URL", ""),
			SettlementContract: getString("SETTLEMENT_CONTRACT", ""),
			AssetRegistry:      getString("ASSET_REGISTRY_CONTRACT", ""),
			DeploymentBlock:    getUint64("DEPLOYMENT_BLOCK", 0),
			Timeout:            getInt("LEDGER_TIMEOUT", 30),
			Debug:              getBool("LEDGER_DEBUG", false),
			PollInterval:       getInt("POLL_INTERVAL", 10),
			ErrorCooldown:      getInt("ERROR_COOLDOWN", 30),
			AuditInterval:      getInt("AUDIT_INTERVAL", 300),
			AuditDelay:         getInt("AUDIT_DELAY", 60),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "./mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
		Aws: AwsConfig{
			AccessKey: getString("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getString("AWS_SECRET_KEY_ID", ""),
			Region:    getString("AWS_REGION", ""),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint64(key string, defaultValue uint) uint64 {
	return uint64(getInt(key, int(defaultValue)))
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
