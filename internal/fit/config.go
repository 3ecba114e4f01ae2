package fit

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"MELD_FIT_REQUEST_TIMEOUT" default:"60s"`
}
