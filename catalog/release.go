package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/query"
)

// ReleaseSource serves champion release metadata from a static table. It
// sits between the local store and the remote API.
type ReleaseSource struct {
	registry *keys.Registry
	byName   map[string]ChampionReleaseData
}

// NewReleaseSource indexes releases by case-folded name.
func NewReleaseSource(registry *keys.Registry, releases ...ChampionReleaseData) *ReleaseSource {
	s := &ReleaseSource{registry: registry, byName: make(map[string]ChampionReleaseData, len(releases))}
	for _, r := range releases {
		s.byName[strings.ToLower(r.Name)] = r
	}
	return s
}

func (s *ReleaseSource) Name() string { return "release" }

func (s *ReleaseSource) Provides() []string { return []string{ChampionReleaseType} }

func (s *ReleaseSource) Get(_ context.Context, typeName string, q query.Query) (any, error) {
	if typeName != ChampionReleaseType {
		return nil, fmt.Errorf("release source: unsupported type %s", typeName)
	}
	r, ok := s.byName[strings.ToLower(q.Str("name"))]
	if !ok {
		return nil, errs.NotFound(typeName, q)
	}
	return r, nil
}

func (s *ReleaseSource) GetMany(ctx context.Context, typeName string, q query.Query) ([]any, error) {
	singles, err := s.registry.Split(typeName, q)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(singles))
	for _, single := range singles {
		v, err := s.Get(ctx, typeName, single)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DefaultReleases is a sample of release metadata.
func DefaultReleases() []ChampionReleaseData {
	return []ChampionReleaseData{
		{Name: "Annie", ReleaseDate: "2009-02-21", Patch: "Alpha Week 2"},
		{Name: "Olaf", ReleaseDate: "2010-06-09", Patch: "V1.0.0.15"},
		{Name: "Galio", ReleaseDate: "2010-08-10", Patch: "V1.0.0.32"},
		{Name: "Twisted Fate", ReleaseDate: "2009-02-21", Patch: "Alpha Week 2"},
		{Name: "Xin Zhao", ReleaseDate: "2010-07-13", Patch: "V1.0.0.20"},
		{Name: "Urgot", ReleaseDate: "2010-08-24", Patch: "V1.0.0.38"},
		{Name: "LeBlanc", ReleaseDate: "2010-11-02", Patch: "V1.0.0.66"},
		{Name: "Vladimir", ReleaseDate: "2010-07-27", Patch: "V1.0.0.26"},
		{Name: "Fiddlesticks", ReleaseDate: "2009-02-21", Patch: "Alpha Week 2"},
		{Name: "Kayle", ReleaseDate: "2009-02-21", Patch: "Alpha Week 2"},
		{Name: "Aatrox", ReleaseDate: "2013-06-13", Patch: "V3.8"},
		{Name: "Ahri", ReleaseDate: "2011-12-14", Patch: "V1.0.0.131"},
	}
}
