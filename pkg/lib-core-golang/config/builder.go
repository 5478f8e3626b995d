package config

import "fmt"

// SourceFactory creates a source when the config gets loaded
type SourceFactory func() (Source, error)

// Builder collects param declarations grouped by the source they are read from
type Builder struct {
	appEnv AppEnv
	groups []*ParamGroup
}

// NewBuilder returns a builder for a given app env
func NewBuilder(appEnv AppEnv) *Builder {
	return &Builder{appEnv: appEnv}
}

// AppEnv returns env the builder was created for
func (b *Builder) AppEnv() AppEnv {
	return b.appEnv
}

// LocalSource makes a factory of a source backed by json files of the config dir
func (b *Builder) LocalSource() SourceFactory {
	return func() (Source, error) {
		return NewLocalSource(
			LocalOpts.WithAppEnv(b.appEnv),
			LocalOpts.WithIgnoreDefaultService(),
		)
	}
}

// RemoteSource makes a factory of a source backed by AWS SSM.
// Local envs (dev and test) read remote params from config files instead
func (b *Builder) RemoteSource() SourceFactory {
	return func() (Source, error) {
		if b.appEnv.IsLocal() {
			return b.LocalSource()()
		}
		logger.Info(nil, "Remote params of %v env are read from AWS SSM", b.appEnv.Name)
		return NewAWSSSMSource(AwsSSMOpts.WithAppEnv(b.appEnv))
	}
}

// Group starts a group of params read from a source created by the factory
func (b *Builder) Group(factory SourceFactory) *ParamGroup {
	g := &ParamGroup{factory: factory, keys: map[paramImpl]bool{}}
	g.ParamScope = ParamScope{group: g, service: b.appEnv.ServiceName}
	b.groups = append(b.groups, g)
	return g
}

// Local starts a group of params read from the local source
func (b *Builder) Local() *ParamGroup {
	return b.Group(b.LocalSource())
}

// Remote starts a group of params read from the remote source
func (b *Builder) Remote() *ParamGroup {
	return b.Group(b.RemoteSource())
}

// LoadConfig creates sources of every group and loads values of all declared params
func (b *Builder) LoadConfig(loadOpts ...ServiceConfigOpt) (ServiceConfig, error) {
	opts := make([]ServiceConfigOpt, 0, len(b.groups)+len(loadOpts))
	total := 0
	for _, g := range b.groups {
		source, err := g.factory()
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSource(sourceBinding{params: g.params, source: source}))
		total += len(g.params)
	}

	cfg, err := Load(append(opts, loadOpts...)...)
	if err != nil {
		logger.WithError(err).Error(nil, "Failed to load config")
		return nil, err
	}
	logger.Debug(nil, "Loaded %v params from %v sources", total, len(b.groups))
	return cfg, nil
}

// ParamGroup holds params read from the same source. Params are
// declared within the service of the app env unless ForService is used
type ParamGroup struct {
	ParamScope

	factory SourceFactory
	params  []param
	keys    map[paramImpl]bool
}

// ForService returns a scope to declare params of another service
func (g *ParamGroup) ForService(service string) ParamScope {
	return ParamScope{group: g, service: service}
}

func (g *ParamGroup) declare(p param) {
	id := ref(p.key(), p.service())
	if g.keys[id] {
		panic(fmt.Sprintf("Parameter %v is declared twice", id))
	}
	g.keys[id] = true
	g.params = append(g.params, p)
}

// ParamScope declares params of a service within a group
type ParamScope struct {
	group   *ParamGroup
	service string
}

// String declares a string param
func (s ParamScope) String(key string) StringParam {
	p := newStringParam(key, s.service)
	s.group.declare(p)
	return p
}

// Int declares an int param
func (s ParamScope) Int(key string) IntParam {
	p := newIntParam(key, s.service)
	s.group.declare(p)
	return p
}

// Bool declares a bool param
func (s ParamScope) Bool(key string) BoolParam {
	p := newBoolParam(key, s.service)
	s.group.declare(p)
	return p
}

// Duration declares a duration param
func (s ParamScope) Duration(key string) DurationParam {
	p := newDurationParam(key, s.service)
	s.group.declare(p)
	return p
}
