// Package config 提供 SpeechGate 的配置管理功能。
//
// 支持从 YAML 文件、.env 文件和环境变量加载配置，
// 并提供默认值与统一校验。
package config
