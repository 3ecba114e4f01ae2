package manager

type Config struct {
	BlueprintDir string `envconfig:"MELD_BLUEPRINT_DIR" default:"blueprints"`
	QueueSize    int    `envconfig:"MELD_TRAIN_QUEUE_SIZE" default:"8"`
}
