package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

const (
	defaultConfigFile = "default.json"
	envOverridesFile  = "custom-environment-variables.json"
)

type localSource struct {
	dir                  string
	configFiles          []string
	envOverrides         map[string]interface{}
	defaultService       string
	ignoreDefaultService bool
}

// pick returns value by a slash separated path, e.g storage/driver
func pick(obj interface{}, path string) interface{} {
	paramVal := obj
	for _, part := range strings.Split(path, "/") {
		node, ok := paramVal.(map[string]interface{})
		if !ok {
			return nil
		}
		if paramVal, ok = node[part]; !ok {
			return nil
		}
	}
	return paramVal
}

func (s *localSource) paramPath(p param) string {
	if p.service() == "" {
		return p.key()
	}
	if s.ignoreDefaultService && p.service() == s.defaultService {
		return p.key()
	}
	return p.service() + "/" + p.key()
}

func readJSONFile(path string) (map[string]interface{}, error) {
	buffer, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{}
	if err := json.Unmarshal(buffer, &data); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse %v", filepath.Base(path))
	}
	return data, nil
}

// envOverride returns value of env variable mapped to the param if it is set
func (s *localSource) envOverride(p param) (string, string, bool) {
	envName, ok := pick(s.envOverrides, s.paramPath(p)).(string)
	if !ok {
		return "", "", false
	}
	envVal := os.Getenv(envName)
	return envName, envVal, envVal != ""
}

// GetParameters reads config files on every call so refresh picks up changes
func (s *localSource) GetParameters(ctx context.Context, params []param) (map[param]interface{}, error) {
	values := map[param]interface{}{}
	for _, configFile := range s.configFiles {
		configData, err := readJSONFile(filepath.Join(s.dir, configFile))
		if os.IsNotExist(err) && configFile != defaultConfigFile {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to load config file %v", configFile)
		}
		for _, p := range params {
			if paramVal := pick(configData, s.paramPath(p)); paramVal != nil {
				values[p] = paramVal
			}
		}
	}
	for _, p := range params {
		if envName, envVal, ok := s.envOverride(p); ok {
			logger.Debug(ctx, "Using %v env override for %v", envName, p)
			values[p] = envVal
		}
	}
	return values, nil
}

// LocalOpt is an option of a local config source
type LocalOpt func(s *localSource)

// LocalOpts are options of a local source
var LocalOpts = struct {
	// WithDir option to set local dir to load config from
	WithDir func(dir string) LocalOpt

	// WithIgnoreDefaultService option to skip default service when building param path
	// so params for the default service will be resolved from a root of a config
	WithIgnoreDefaultService func() LocalOpt

	// WithAppEnv option will add env specific config files: <env>.json and <env>-<facet>.json
	WithAppEnv func(appEnv AppEnv) LocalOpt
}{
	WithDir: func(dir string) LocalOpt {
		return func(s *localSource) {
			s.dir = dir
		}
	},
	WithIgnoreDefaultService: func() LocalOpt {
		return func(s *localSource) {
			s.ignoreDefaultService = true
		}
	},
	WithAppEnv: func(appEnv AppEnv) LocalOpt {
		return func(s *localSource) {
			s.configFiles = append(s.configFiles, appEnv.Name+".json")
			s.defaultService = appEnv.ServiceName
			if appEnv.Facet != "" {
				s.configFiles = append(s.configFiles, appEnv.Name+"-"+appEnv.Facet+".json")
			}
		}
	},
}

// NewLocalSource creates a source that reads params from a local fs.
// It is similar to node-config, supports json files and custom-environment-variables.json.
// Files are applied in order: default.json, <env>.json, <env>-<facet>.json, env variables.
// The dir is a config dir of the project root unless APP_CONFIG_DIR is set
func NewLocalSource(opts ...LocalOpt) (Source, error) {
	source := &localSource{
		configFiles: []string{defaultConfigFile},
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		source.dir = filepath.Join(file, "..", "..", "..", "..", "config")
	} else {
		panic("Can not resolve config dir")
	}
	if dir := os.Getenv(configDirVar); dir != "" {
		source.dir = dir
	}

	for _, opt := range opts {
		opt(source)
	}

	envOverrides, err := readJSONFile(filepath.Join(source.dir, envOverridesFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "Failed to load env overrides")
	default:
		source.envOverrides = envOverrides
	}

	return source, nil
}
