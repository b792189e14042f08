package models

// SystemConfig represents key-value configuration settings such as the
// last completed release cycle date.
type SystemConfig struct {
	Key   string `gorm:"primaryKey;column:key" json:"key"`
	Value string `gorm:"column:value" json:"value"`
}

// ConfigKeyLastReleaseCycle holds the YYYY-MM-DD date of the last release
// cycle that ran to completion.
const ConfigKeyLastReleaseCycle = "last_release_cycle"

// TableName specifies the table name for GORM
func (SystemConfig) TableName() string {
	return "system_config"
}
