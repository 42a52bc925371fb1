// Package config wires viper to the plst4 defaults, the config file and the environment.
package config

import (
	"errors"
	"strings"

	"github.com/plst4-cli/plst4/constant"
	"github.com/plst4-cli/plst4/filesystem"
	"github.com/plst4-cli/plst4/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer maps dotted keys onto environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup loads defaults, binds PLST4_* variables and reads plst4.toml if present.
func Setup() error {
	viper.SetConfigName(constant.Plst4)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Plst4)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}

	return nil
}

// Persist writes the in-memory configuration, creating the file on first use.
func Persist() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}
