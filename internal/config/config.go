// internal/config/config.go
package config

import (
	"path"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Paths    PathsConfig
	Workflow WorkflowConfig
	Sync     SyncConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	ListingTTLSeconds int
}

// StorageConfig selects the backend holding master data, inventory and
// purchase-order workbooks.
type StorageConfig struct {
	Backend   string // local, s3, minio, gdrive
	LocalRoot string
	S3        ObjectStoreConfig
	Minio     ObjectStoreConfig
	Drive     DriveConfig
}

type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsJSON string
	RootFolderID    string
}

// PathsConfig holds folder and file names relative to the storage root.
type PathsConfig struct {
	MasterDataFolder string
	MasterDataFile   string
	InventoryFolder  string
	InventoryFile    string
	POFolder         string
	TemplateFolder   string
	POTemplateFile   string
}

type WorkflowConfig struct {
	FuzzyThreshold    int
	DefaultDepartment string
	DefaultRequester  string
	RulesFile         string
}

type SyncConfig struct {
	IntervalSeconds int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "autopo_lab")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_LISTING_TTL_SECONDS", 300)

	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("STORAGE_LOCAL_ROOT", "./data/inventory")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("MINIO_USE_SSL", true)

	v.SetDefault("MASTER_DATA_FOLDER", "MasterData")
	v.SetDefault("MASTER_DATA_FILE", "Master_Data.xlsx")
	v.SetDefault("INVENTORY_FOLDER", "CurrentInventory")
	v.SetDefault("INVENTORY_FILE", "Inventory.xlsx")
	v.SetDefault("PO_FOLDER", "PurchaseOrders")
	v.SetDefault("TEMPLATE_FOLDER", "Templates")
	v.SetDefault("PO_TEMPLATE_FILE", "Template_Order.xlsx")

	v.SetDefault("FUZZY_THRESHOLD", 85)
	v.SetDefault("DEFAULT_DEPARTMENT", "Phòng Lab")
	v.SetDefault("DEFAULT_REQUESTER", "")
	v.SetDefault("RULES_FILE", "")
	v.SetDefault("SYNC_INTERVAL_SECONDS", 300)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:           v.GetBool("CACHE_ENABLED"),
			RedisURL:          v.GetString("REDIS_URL"),
			RedisHost:         v.GetString("REDIS_HOST"),
			RedisPort:         v.GetString("REDIS_PORT"),
			RedisPassword:     v.GetString("REDIS_PASSWORD"),
			RedisDB:           v.GetInt("REDIS_DB"),
			ListingTTLSeconds: v.GetInt("CACHE_LISTING_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND"))),
			LocalRoot: v.GetString("STORAGE_LOCAL_ROOT"),
			S3: ObjectStoreConfig{
				Endpoint:  v.GetString("S3_ENDPOINT"),
				AccessKey: v.GetString("S3_ACCESS_KEY"),
				SecretKey: v.GetString("S3_SECRET_KEY"),
				Bucket:    v.GetString("S3_BUCKET"),
				Region:    v.GetString("S3_REGION"),
				UseSSL:    v.GetBool("S3_USE_SSL"),
			},
			Minio: ObjectStoreConfig{
				Endpoint:  v.GetString("MINIO_ENDPOINT"),
				AccessKey: v.GetString("MINIO_ACCESS_KEY"),
				SecretKey: v.GetString("MINIO_SECRET_KEY"),
				Bucket:    v.GetString("MINIO_BUCKET"),
				Region:    v.GetString("MINIO_REGION"),
				UseSSL:    v.GetBool("MINIO_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
				RootFolderID:    v.GetString("GOOGLE_DRIVE_ROOT_FOLDER_ID"),
			},
		},
		Paths: PathsConfig{
			MasterDataFolder: v.GetString("MASTER_DATA_FOLDER"),
			MasterDataFile:   v.GetString("MASTER_DATA_FILE"),
			InventoryFolder:  v.GetString("INVENTORY_FOLDER"),
			InventoryFile:    v.GetString("INVENTORY_FILE"),
			POFolder:         v.GetString("PO_FOLDER"),
			TemplateFolder:   v.GetString("TEMPLATE_FOLDER"),
			POTemplateFile:   v.GetString("PO_TEMPLATE_FILE"),
		},
		Workflow: WorkflowConfig{
			FuzzyThreshold:    v.GetInt("FUZZY_THRESHOLD"),
			DefaultDepartment: v.GetString("DEFAULT_DEPARTMENT"),
			DefaultRequester:  v.GetString("DEFAULT_REQUESTER"),
			RulesFile:         v.GetString("RULES_FILE"),
		},
		Sync: SyncConfig{
			IntervalSeconds: v.GetInt("SYNC_INTERVAL_SECONDS"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

// Defaults returns a configuration built only from default values, without
// reading the environment or any .env file.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func (p PathsConfig) MasterDataPath() string {
	return path.Join(p.MasterDataFolder, p.MasterDataFile)
}

func (p PathsConfig) InventoryPath() string {
	return path.Join(p.InventoryFolder, p.InventoryFile)
}

func (p PathsConfig) POPath(fileName string) string {
	return path.Join(p.POFolder, fileName)
}

func (p PathsConfig) TemplatePath() string {
	return path.Join(p.TemplateFolder, p.POTemplateFile)
}
