// Package resolution matches enriched GitHub profiles to existing person
// records using a cascade of strategies ordered by how rarely each one
// produces a false positive.
package resolution

import (
	"context"

	"github.com/ckerr6/talentgraph/internal/logging"
	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

// Strategy names a match cascade step, in the order they're tried.
type Strategy string

const (
	StrategyEmail            Strategy = "email"
	StrategyLinkedIn         Strategy = "linkedin"
	StrategyNameCompanyExact Strategy = "name_company_exact"
	StrategyNameCompanyFuzzy Strategy = "name_company_fuzzy"
	StrategyNameLocation     Strategy = "name_location"
	StrategyFuzzyNameCompany Strategy = "fuzzy_name_company"
	StrategyNoMatch          Strategy = "no_match"
	StrategyCreated          Strategy = "created"
)

// confidenceCreated is the confidence recorded for a Person created from
// an unmatched profile: high enough to link automatically (it's not a
// guess, it's a new record), but distinguishable from a genuine match.
const confidenceCreated = 1.0

// Base confidence per strategy; the two fuzzy strategies multiply it by
// their similarity score, so their results can fall below it.
const (
	confidenceEmail            = 0.95
	confidenceLinkedIn         = 0.99
	confidenceNameCompanyExact = 0.75
	confidenceNameCompanyFuzzy = 0.75
	confidenceNameLocation     = 0.70
	confidenceFuzzyNameCompany = 0.65
)

const (
	fuzzyGateNameCompany      = 0.75
	fuzzyGateFuzzyNameCompany = 0.80

	maxNameCompanyCandidates = 20
	maxCompanyCandidates     = 50
)

// DefaultThreshold and AggressiveThreshold are the auto-match cutoffs
// (τ) a caller picks between via Resolver.Aggressive.
const (
	DefaultThreshold    = 0.70
	AggressiveThreshold = 0.60
)

// Result is the outcome of matching one profile.
type Result struct {
	PersonID   string
	Confidence float64
	Strategy   Strategy
}

// Matched reports whether a person was identified at all (regardless of
// whether confidence cleared the auto-match threshold).
func (r Result) Matched() bool {
	return r.Strategy != StrategyNoMatch
}

// Resolver runs the match cascade against enriched profiles.
type Resolver struct {
	store         storage.Store
	aggressive    bool
	createPersons bool
}

func New(store storage.Store, aggressive bool) *Resolver {
	return &Resolver{store: store, aggressive: aggressive}
}

// WithCreatePersons enables creating a new Person from a high-quality
// unmatched profile (name, bio, and email or location) instead of
// leaving it unlinked. Off by default: spec.md treats Person creation
// as the external CSV importers' responsibility, and this is an
// explicit opt-in supplement to that, not a replacement.
func (r *Resolver) WithCreatePersons(enabled bool) *Resolver {
	r.createPersons = enabled
	return r
}

// eligibleForCreation reports whether profile carries enough identity
// signal to seed a new Person record when no match cascade strategy
// finds one.
func eligibleForCreation(profile *models.GitHubProfile) bool {
	if profile.Name == "" || profile.Bio == "" {
		return false
	}
	return profile.Email != "" || profile.Location != ""
}

func (r *Resolver) threshold() float64 {
	if r.aggressive {
		return AggressiveThreshold
	}
	return DefaultThreshold
}

// Match runs the cascade against profile and returns the best result
// found, or StrategyNoMatch if nothing cleared its floor.
func (r *Resolver) Match(ctx context.Context, profile *models.GitHubProfile) (Result, error) {
	if res, ok, err := r.matchEmail(ctx, profile); err != nil || ok {
		return res, err
	}
	if res, ok, err := r.matchLinkedIn(ctx, profile); err != nil || ok {
		return res, err
	}
	if res, ok, err := r.matchNameCompanyExact(ctx, profile); err != nil || ok {
		return res, err
	}
	if res, ok, err := r.matchNameCompanyFuzzy(ctx, profile); err != nil || ok {
		return res, err
	}
	if res, ok, err := r.matchNameLocation(ctx, profile); err != nil || ok {
		return res, err
	}
	if res, ok, err := r.matchFuzzyNameCompany(ctx, profile); err != nil || ok {
		return res, err
	}
	return Result{Strategy: StrategyNoMatch}, nil
}

// ResolveAndLink runs Match and, if confidence clears the threshold,
// writes the github_profile.person_id link. It never overwrites an
// existing link to a different person; such conflicts are logged only.
func (r *Resolver) ResolveAndLink(ctx context.Context, profile *models.GitHubProfile) (Result, error) {
	log := logging.With("component", "resolver")

	res, err := r.Match(ctx, profile)
	if err != nil {
		return res, err
	}
	if !res.Matched() || res.Confidence < r.threshold() {
		if r.createPersons && profile.PersonID == nil && eligibleForCreation(profile) {
			return r.createAndLink(ctx, profile)
		}
		return res, nil
	}

	if profile.PersonID != nil && *profile.PersonID != res.PersonID {
		log.Warn("conflicting match, not overwriting",
			"profile", profile.GitHubUsername, "existing_person", *profile.PersonID, "new_person", res.PersonID)
		return res, nil
	}
	if profile.PersonID != nil && *profile.PersonID == res.PersonID {
		return res, nil
	}

	if err := r.store.LinkProfileToPerson(ctx, profile.ID, res.PersonID); err != nil {
		return res, err
	}
	log.Info("matched profile to person",
		"profile", profile.GitHubUsername, "person", res.PersonID, "strategy", res.Strategy, "confidence", res.Confidence)
	return res, nil
}

// createAndLink seeds a new Person from a profile that carried no
// cascade match but has enough identity signal (per eligibleForCreation)
// to be worth tracking, then links the profile to it. This is the only
// path in the core that creates a Person; ordinary CSV-imported persons
// are out of scope.
func (r *Resolver) createAndLink(ctx context.Context, profile *models.GitHubProfile) (Result, error) {
	log := logging.With("component", "resolver")

	first, last := SplitName(profile.Name)
	person := &models.Person{
		FullName:  profile.Name,
		FirstName: first,
		LastName:  last,
		Location:  profile.Location,
		Headline:  profile.Bio,
	}
	personID, err := r.store.CreatePerson(ctx, person)
	if err != nil {
		return Result{Strategy: StrategyNoMatch}, err
	}

	res := Result{PersonID: personID, Confidence: confidenceCreated, Strategy: StrategyCreated}
	if err := r.store.LinkProfileToPerson(ctx, profile.ID, personID); err != nil {
		return res, err
	}
	log.Info("created person from unmatched profile",
		"profile", profile.GitHubUsername, "person", personID)
	return res, nil
}

func (r *Resolver) matchEmail(ctx context.Context, profile *models.GitHubProfile) (Result, bool, error) {
	if profile.Email == "" {
		return Result{}, false, nil
	}
	persons, err := r.store.FindPersonsByEmail(ctx, profile.Email)
	if err != nil {
		return Result{}, false, err
	}
	if len(persons) == 0 {
		return Result{}, false, nil
	}
	return Result{PersonID: persons[0].ID, Confidence: confidenceEmail, Strategy: StrategyEmail}, true, nil
}

func (r *Resolver) matchLinkedIn(ctx context.Context, profile *models.GitHubProfile) (Result, bool, error) {
	slug := ExtractLinkedInSlug(profile.Bio)
	if slug == "" {
		slug = ExtractLinkedInSlug(profile.LinkedInURLFromBio)
	}
	if slug == "" {
		return Result{}, false, nil
	}
	persons, err := r.store.FindPersonsByNormalizedLinkedInSlug(ctx, slug)
	if err != nil {
		return Result{}, false, err
	}
	if len(persons) == 0 {
		return Result{}, false, nil
	}
	return Result{PersonID: persons[0].ID, Confidence: confidenceLinkedIn, Strategy: StrategyLinkedIn}, true, nil
}

func (r *Resolver) matchNameCompanyExact(ctx context.Context, profile *models.GitHubProfile) (Result, bool, error) {
	first, last := SplitName(profile.Name)
	if first == "" || profile.Company == "" {
		return Result{}, false, nil
	}
	company := NormalizeCompany(profile.Company)
	persons, err := r.store.FindPersonsByNameAndCompany(ctx, first, last, company, maxNameCompanyCandidates)
	if err != nil {
		return Result{}, false, err
	}
	if len(persons) == 0 {
		return Result{}, false, nil
	}
	return Result{PersonID: persons[0].ID, Confidence: confidenceNameCompanyExact, Strategy: StrategyNameCompanyExact}, true, nil
}

func (r *Resolver) matchNameCompanyFuzzy(ctx context.Context, profile *models.GitHubProfile) (Result, bool, error) {
	first, last := SplitName(profile.Name)
	if first == "" || profile.Company == "" {
		return Result{}, false, nil
	}
	candidates, err := r.store.FindPersonsByName(ctx, first, last, maxNameCompanyCandidates)
	if err != nil {
		return Result{}, false, err
	}

	company := NormalizeCompany(profile.Company)
	best := Result{Strategy: StrategyNoMatch}
	bestFuzzy := 0.0
	for _, c := range candidates {
		if c.CompanyName == "" {
			continue
		}
		fuzzy := bestCompanyRatio(company, NormalizeCompany(c.CompanyName))
		if fuzzy < fuzzyGateNameCompany {
			continue
		}
		if fuzzy > bestFuzzy {
			bestFuzzy = fuzzy
			best = Result{PersonID: c.Person.ID, Confidence: confidenceNameCompanyFuzzy * fuzzy, Strategy: StrategyNameCompanyFuzzy}
		}
	}
	return best, best.Strategy != StrategyNoMatch, nil
}

func (r *Resolver) matchNameLocation(ctx context.Context, profile *models.GitHubProfile) (Result, bool, error) {
	first, last := SplitName(profile.Name)
	if first == "" || profile.Location == "" {
		return Result{}, false, nil
	}
	persons, err := r.store.FindPersonsByNameAndLocation(ctx, first, last, profile.Location)
	if err != nil {
		return Result{}, false, err
	}
	if len(persons) == 0 {
		return Result{}, false, nil
	}
	return Result{PersonID: persons[0].ID, Confidence: confidenceNameLocation, Strategy: StrategyNameLocation}, true, nil
}

func (r *Resolver) matchFuzzyNameCompany(ctx context.Context, profile *models.GitHubProfile) (Result, bool, error) {
	if profile.Company == "" || profile.Name == "" {
		return Result{}, false, nil
	}
	company := NormalizeCompany(profile.Company)
	persons, err := r.store.FindPersonsByNormalizedCompany(ctx, company, maxCompanyCandidates)
	if err != nil {
		return Result{}, false, err
	}

	best := Result{Strategy: StrategyNoMatch}
	bestFuzzy := 0.0
	for _, p := range persons {
		fuzzy := ratio(profile.Name, p.FullName)
		if fuzzy < fuzzyGateFuzzyNameCompany {
			continue
		}
		if fuzzy > bestFuzzy {
			bestFuzzy = fuzzy
			best = Result{PersonID: p.ID, Confidence: confidenceFuzzyNameCompany * fuzzy, Strategy: StrategyFuzzyNameCompany}
		}
	}
	return best, best.Strategy != StrategyNoMatch, nil
}
