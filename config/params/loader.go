package params

import (
	"encoding/hex"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// LoadChainConfigFile loads a consensus spec style yaml file, converts hex
// values into a form the yaml parser understands, unmarshals it on top of the
// active preset and applies the result as the beacon chain config.
func LoadChainConfigFile(chainConfigFileName string) {
	yamlFile, err := os.ReadFile(chainConfigFileName) // #nosec G304
	if err != nil {
		log.WithError(err).Fatal("Failed to read chain config file.")
	}
	conf := BeaconConfig().Copy()
	hasConfigName := false
	// Convert 0x hex inputs to fixed bytes arrays.
	lines := strings.Split(string(yamlFile), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "CONFIG_NAME") {
			hasConfigName = true
		}
		if !strings.HasPrefix(line, "#") && strings.Contains(line, "0x") {
			parts := replaceHexStringWithYAMLFormat(line)
			lines[i] = strings.Join(parts, "\n")
		}
	}
	yamlFile = []byte(strings.Join(lines, "\n"))
	if err := yaml.Unmarshal(yamlFile, conf); err != nil {
		log.WithError(err).Fatal("Failed to parse chain config yaml file.")
	}
	if !hasConfigName {
		conf.ConfigName = "devnet"
	}
	conf.InitializeForkSchedule()
	log.Debugf("Config file values: %+v", conf)
	OverrideBeaconConfig(conf)
}

// replaceHexStringWithYAMLFormat will replace hex strings with a form that
// the yaml parser will understand.
func replaceHexStringWithYAMLFormat(line string) []string {
	parts := strings.Split(line, "0x")
	if len(parts) < 2 {
		return parts
	}
	decoded, err := hex.DecodeString(parts[1])
	if err != nil {
		log.WithError(err).Error("Failed to decode hex string.")
		return parts
	}
	switch l := len(decoded); {
	case l == 1:
		var b byte
		b = decoded[0]
		fixedByte, err := yaml.Marshal(b)
		if err != nil {
			log.WithError(err).Error("Failed to marshal config file.")
		}
		parts[0] += string(fixedByte)
		parts = parts[:1]
	case l > 1 && l <= 4:
		var arr [4]byte
		copy(arr[:], decoded)
		fixedByte, err := yaml.Marshal(arr)
		if err != nil {
			log.WithError(err).Error("Failed to marshal config file.")
		}
		parts[1] = string(fixedByte)
	case l > 4 && l <= 32:
		var arr [32]byte
		copy(arr[:], decoded)
		fixedByte, err := yaml.Marshal(arr)
		if err != nil {
			log.WithError(err).Error("Failed to marshal config file.")
		}
		parts[1] = string(fixedByte)
	case l > 32 && l <= 48:
		var arr [48]byte
		copy(arr[:], decoded)
		fixedByte, err := yaml.Marshal(arr)
		if err != nil {
			log.WithError(err).Error("Failed to marshal config file.")
		}
		parts[1] = string(fixedByte)
	case l > 48 && l <= 96:
		var arr [96]byte
		copy(arr[:], decoded)
		fixedByte, err := yaml.Marshal(arr)
		if err != nil {
			log.WithError(err).Error("Failed to marshal config file.")
		}
		parts[1] = string(fixedByte)
	}
	return parts
}
