package cmd

import (
	"github.com/difyz9/word2video/model"
	"github.com/difyz9/word2video/service"
)

// loadConfigQuietly 读取配置，不存在时返回默认配置
func loadConfigQuietly() (*model.Config, error) {
	return service.LoadConfig(configFile)
}

// loadLogConfig 读取日志配置，配置文件有误时使用默认值
func loadLogConfig() model.LogConfig {
	cfg, err := loadConfigQuietly()
	if err != nil {
		return service.DefaultConfig().Log
	}
	return cfg.Log
}
