package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values and scales them to a duration unit.
type TimeConfig interface {
	// GetSecond treats the value for key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute treats the value for key as a number of minutes.
	GetMinute(key string) time.Duration
	// GetHour treats the value for key as a number of hours.
	GetHour(key string) time.Duration
	// GetDay treats the value for key as a number of 24h days.
	GetDay(key string) time.Duration
}

// NumberConfig reads numeric values. Missing or malformed keys yield zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetFloat64(key string) float64
}

// Config is the read-only application configuration.
//
// Implementations return the zero value for unknown keys unless a default
// was registered when the Config was built.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray splits a "<a>,<b>,..." value, dropping blank elements.
	GetArray(key string) []string

	// GetMap parses a "<k1>:<v1>,<k2>:<v2>" value.
	GetMap(key string) map[string]string
}
