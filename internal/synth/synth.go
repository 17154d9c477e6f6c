// Package synth turns a resolved template spec and its identifier set into
// the ordered list of file artifacts for a project. Synthesis is pure: the
// same inputs always produce byte-identical artifacts.
package synth

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/veriforge/veriforge/internal/artifact"
	"github.com/veriforge/veriforge/internal/cachemanager"
	"github.com/veriforge/veriforge/internal/domain/catalog"
	vferrors "github.com/veriforge/veriforge/internal/errors"
	"github.com/veriforge/veriforge/internal/log"
	"github.com/veriforge/veriforge/internal/naming"
	"github.com/veriforge/veriforge/internal/render"
	"github.com/veriforge/veriforge/internal/templates"
)

// Result is the output of one synthesis run.
type Result struct {
	Artifacts []artifact.FileArtifact
	Warnings  []string
}

// Synthesizer renders manifest components. It is safe for concurrent use;
// parsed templates are shared through the cache.
type Synthesizer struct {
	fsys       fs.FS
	manifest   *Manifest
	scenarios  map[string]Scenario
	vocabulary map[string]bool
	parsed     *cachemanager.ReadThroughCache[string, *render.Template, source]
}

// source names a template body. Inline sources carry their text; the rest
// are read from the template filesystem.
type source struct {
	name   string
	text   string
	inline bool
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithCache sets the cache holding parsed templates. By default an
// in-memory cache without expiry is used.
func WithCache(c cachemanager.CacheManager[string, *render.Template]) Option {
	return func(s *Synthesizer) {
		s.parsed = cachemanager.NewReadThroughCache[string, *render.Template, source](c, s.parse, false)
	}
}

// New loads the manifest and scenario catalog from fsys. vocabulary lists
// every feature name the catalog defines.
func New(fsys fs.FS, vocabulary []string, opts ...Option) (*Synthesizer, error) {
	manifest, err := LoadManifest(fsys)
	if err != nil {
		return nil, err
	}
	scenarios, err := LoadScenarios(fsys)
	if err != nil {
		return nil, err
	}
	s := &Synthesizer{
		fsys:       fsys,
		manifest:   manifest,
		scenarios:  scenarios,
		vocabulary: make(map[string]bool, len(vocabulary)),
	}
	for _, v := range vocabulary {
		s.vocabulary[v] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parsed == nil {
		cache := cachemanager.NewInMemoryCacheManager[string, *render.Template]("templates", cachemanager.NoExpiration, cachemanager.DefaultCleanupInterval)
		s.parsed = cachemanager.NewReadThroughCache[string, *render.Template, source](cache, s.parse, false)
	}
	return s, nil
}

// NewBuiltin returns a Synthesizer over the embedded templates.
func NewBuiltin(vocabulary []string, opts ...Option) (*Synthesizer, error) {
	return New(templates.FS(), vocabulary, opts...)
}

// Manifest returns the ordered component manifest.
func (s *Synthesizer) Manifest() *Manifest { return s.manifest }

// Synthesize renders every component enabled by spec, in manifest order.
// The protocol profile is taken from spec. Requested scenarios that the
// catalog lacks or that do not apply to the protocol are emitted as stubs
// and reported in Result.Warnings.
func (s *Synthesizer) Synthesize(ctx context.Context, spec catalog.TemplateSpec, ids naming.IdentifierSet) (Result, error) {
	var res Result
	plans := s.planScenarios(spec, &res)
	env := buildEnv(spec, ids, plans, s.vocabulary)
	kind := spec.Protocol().Kind()

	seen := make(map[string]string)
	for _, c := range s.manifest.Components {
		if c.Requires != "" && !spec.HasFeature(c.Requires) {
			log.Debug(log.CatSynth, "skipping component", "component", c.Name, "requires", c.Requires)
			continue
		}
		tmpl, err := s.bodyFor(ctx, kind, c.Template)
		if err != nil {
			return Result{}, err
		}

		envs := []render.Env{env}
		if c.PerScenario {
			envs = envs[:0]
			for _, p := range plans {
				envs = append(envs, withScenario(env, ids, p))
			}
		}
		for _, e := range envs {
			e = withSources(e, res.Artifacts)
			art, err := s.emit(ctx, c, tmpl, e, ids)
			if err != nil {
				return Result{}, err
			}
			if prev, dup := seen[art.RelativePath]; dup {
				return Result{}, vferrors.InternalConsistency(art.RelativePath,
					fmt.Sprintf("components %s and %s both produce %s", prev, c.Name, art.RelativePath))
			}
			seen[art.RelativePath] = c.Name
			res.Artifacts = append(res.Artifacts, art)
		}
	}

	log.Debug(log.CatSynth, "synthesized project",
		"project", spec.ProjectName(), "artifacts", len(res.Artifacts), "warnings", len(res.Warnings))
	return res, nil
}

func (s *Synthesizer) planScenarios(spec catalog.TemplateSpec, res *Result) []scenarioPlan {
	profile := spec.Protocol().Profile()
	kind := spec.Protocol().Kind().String()

	plans := make([]scenarioPlan, 0, len(spec.Scenarios()))
	for _, name := range spec.Scenarios() {
		sc, ok := s.scenarios[name]
		applicable := ok &&
			(len(sc.Protocols) == 0 || slices.Contains(sc.Protocols, kind)) &&
			(!sc.Burst || profile.BurstCapable())
		if applicable {
			plans = append(plans, scenarioPlan{Scenario: sc})
			continue
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("scenario %s needs manual implementation", name))
		plans = append(plans, scenarioPlan{
			Scenario: Scenario{Name: name, Description: "Stub for " + name},
			stub:     true,
		})
	}
	return plans
}

// bodyFor returns the protocol-specific body for a template when one exists,
// and the generic body otherwise. Custom protocols always use the generic one.
func (s *Synthesizer) bodyFor(ctx context.Context, kind catalog.ProtocolKind, name string) (*render.Template, error) {
	if kind != catalog.KindCustom {
		specific := path.Join(templates.ComponentsDir, kind.String(), name)
		if _, err := fs.Stat(s.fsys, specific); err == nil {
			return s.parsed.Get(ctx, "body:"+specific, source{name: specific}, cachemanager.NoExpiration)
		}
	}
	generic := path.Join(templates.ComponentsDir, name)
	return s.parsed.Get(ctx, "body:"+generic, source{name: generic}, cachemanager.NoExpiration)
}

func (s *Synthesizer) parse(_ context.Context, src source) (*render.Template, error) {
	text := src.text
	if !src.inline {
		content, err := fs.ReadFile(s.fsys, src.name)
		if err != nil {
			return nil, vferrors.Wrap(vferrors.EInternalConsistency, src.name, "read template", err)
		}
		text = string(content)
	}
	log.Debug(log.CatRender, "parsed template", "template", src.name)
	return render.Parse(src.name, text)
}

func (s *Synthesizer) emit(ctx context.Context, c Component, body *render.Template, env render.Env, ids naming.IdentifierSet) (artifact.FileArtifact, error) {
	pathTmpl, err := s.parsed.Get(ctx, "path:"+c.Name, source{name: c.Name + ".path", text: c.Path, inline: true}, cachemanager.NoExpiration)
	if err != nil {
		return artifact.FileArtifact{}, err
	}
	rel, err := pathTmpl.Render(env)
	if err != nil {
		return artifact.FileArtifact{}, err
	}
	if err := checkPath(rel); err != nil {
		return artifact.FileArtifact{}, err
	}

	content, err := body.Render(env)
	if err != nil {
		return artifact.FileArtifact{}, err
	}
	if c.CheckVIF {
		if err := checkVIF(rel, content, ids); err != nil {
			return artifact.FileArtifact{}, err
		}
	}
	if c.CheckYAML {
		if err := checkYAML(rel, content); err != nil {
			return artifact.FileArtifact{}, err
		}
	}
	return artifact.FileArtifact{RelativePath: rel, Content: []byte(content), Component: c.Name}, nil
}

func checkPath(rel string) error {
	switch {
	case rel == "" || strings.HasSuffix(rel, "/"):
		return vferrors.InternalConsistency(rel, "empty artifact path")
	case path.IsAbs(rel) || path.Clean(rel) != rel:
		return vferrors.InternalConsistency(rel, "artifact path must be relative and clean")
	case rel == ".." || strings.HasPrefix(rel, "../"):
		return vferrors.InternalConsistency(rel, "artifact path escapes the project root")
	}
	return nil
}
