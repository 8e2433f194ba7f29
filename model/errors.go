package model

import "fmt"

// ConfigError 某个服务缺少必需配置
type ConfigError struct {
	Service string
	Key     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s 配置缺失: %s", e.Service, e.Key)
}
