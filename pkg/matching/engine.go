package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/logger"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
)

const (
	DefaultRadiusMiles = 100
	DefaultMaxResults  = 20

	baseScore = 5
	minScore  = 1
	maxScore  = 10

	// The River Program carries bespoke eligibility on top of the generic
	// tag rules: a fixed state allowlist and a priority boost.
	RiverProgramTitle = "River Nonprofit Ketamine Trial"
	riverKeyword      = "river"
	riverTagSubject   = "river"
)

var riverProgramStates = map[string]bool{"CA": true, "MT": true}

// Engine filters and scores a study catalog against a participant profile.
// It is pure and deterministic: no I/O, no state across invocations.
type Engine struct {
	radiusMiles float64
	maxResults  int
}

func NewEngine(radiusMiles float64, maxResults int) *Engine {
	if radiusMiles <= 0 {
		radiusMiles = DefaultRadiusMiles
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Engine{radiusMiles: radiusMiles, maxResults: maxResults}
}

// Match returns the ranked, annotated list of studies the participant is
// eligible for, truncated to the engine's result cap. As a documented side
// effect it attaches the union of matched study tags and the matched titles
// to the profile for downstream CRM reporting. Match never fails: a study
// that cannot be evaluated is logged and skipped.
func (e *Engine) Match(profile *models.ParticipantProfile, studies []models.StudyRecord, excludeSpecialProgram bool) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(studies))
	for i := range studies {
		result, ok := e.evaluate(profile, &studies[i], excludeSpecialProgram)
		if ok {
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		iRiver := strings.Contains(strings.ToLower(results[i].Study.Title), riverKeyword)
		jRiver := strings.Contains(strings.ToLower(results[j].Study.Title), riverKeyword)
		return iRiver && !jRiver
	})

	if len(results) > e.maxResults {
		results = results[:e.maxResults]
	}

	attachAggregates(profile, results)
	return results
}

// evaluate runs the short-circuit filter chain and then scores. A panic in
// per-study processing (e.g. malformed site data) skips that study only.
func (e *Engine) evaluate(profile *models.ParticipantProfile, study *models.StudyRecord, excludeSpecialProgram bool) (result models.MatchResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithFields(map[string]interface{}{
				"study": study.Title,
				"error": r,
			}).Error("Skipping study after evaluation failure")
			ok = false
		}
	}()

	if excludeSpecialProgram && isSpecialProgram(study) {
		return models.MatchResult{}, false
	}

	matchingSites, distance, reachable := e.reachability(profile, study)
	if !reachable {
		return models.MatchResult{}, false
	}

	if profile.Age != nil {
		if study.MinAge != nil && *profile.Age < *study.MinAge {
			return models.MatchResult{}, false
		}
		if study.MaxAge != nil && *profile.Age > *study.MaxAge {
			return models.MatchResult{}, false
		}
	}

	if profile.Gender == "female" && study.HasTag(models.TagExclude, "female") {
		return models.MatchResult{}, false
	}
	if profile.Gender == "male" && study.HasTag(models.TagExclude, "male") {
		return models.MatchResult{}, false
	}

	if strings.EqualFold(study.Title, RiverProgramTitle) && !riverProgramStates[profile.State] {
		return models.MatchResult{}, false
	}

	score, reasons := e.score(profile, study)

	return models.MatchResult{
		Study:         *study,
		MatchingSites: matchingSites,
		DistanceMiles: distance,
		Score:         score,
		Reasons:       reasons,
	}, true
}

// reachability decides whether the study is geographically or logistically
// accessible. Telehealth studies are always reachable. Once a study declares
// sites with coordinates and the participant's location is known, those
// sites must carry the decision: neither the study-level point nor the state
// allowlist can rescue a study whose every site is out of range.
func (e *Engine) reachability(profile *models.ParticipantProfile, study *models.StudyRecord) ([]models.Site, *float64, bool) {
	if study.HasTag(models.TagInclude, "telehealth") {
		return nil, nil, true
	}

	var matching []models.Site
	var nearest *float64
	sitesResolved := false

	if profile.Coordinates != nil {
		for _, site := range study.Sites {
			point := site.Point()
			if point == nil {
				continue
			}
			sitesResolved = true
			d := geo.Miles(*profile.Coordinates, *point)
			if d <= e.radiusMiles {
				matching = append(matching, site)
				if nearest == nil || d < *nearest {
					dist := d
					nearest = &dist
				}
			}
		}
		if len(matching) > 0 {
			return matching, nearest, true
		}
		if sitesResolved {
			// Sites exist and none qualified; no fallback applies.
			return nil, nil, false
		}
		if study.Coordinates != nil {
			d := geo.Miles(*profile.Coordinates, *study.Coordinates)
			if d <= e.radiusMiles {
				dist := d
				return nil, &dist, true
			}
		}
	}

	for _, state := range study.AllowedStates {
		if strings.EqualFold(strings.TrimSpace(state), profile.State) {
			return nil, nil, true
		}
	}
	return nil, nil, false
}

// score applies the additive rule table over the surviving study, recording
// one reason per firing rule in evaluation order.
func (e *Engine) score(profile *models.ParticipantProfile, study *models.StudyRecord) (int, []string) {
	score := baseScore
	var reasons []string

	if !hasConditionOverlap(profile, study) {
		score -= 3
		reasons = append(reasons, "low confidence: none of your conditions appear in this study (-3)")
	}

	for _, tag := range study.Tags {
		if tag.Kind == models.TagExclude && profile.HasTag(tag.Subject) {
			score -= 2
			reasons = append(reasons, fmt.Sprintf("study may exclude %s (-2)", tag.Subject))
		}
	}
	for _, tag := range study.Tags {
		if tag.Kind == models.TagRequire && !profile.HasTag(tag.Subject) {
			score -= 2
			reasons = append(reasons, fmt.Sprintf("missing required: %s (-2)", tag.Subject))
		}
	}
	for _, tag := range study.Tags {
		if tag.Kind == models.TagInclude && profile.HasTag(tag.Subject) {
			score++
			reasons = append(reasons, fmt.Sprintf("matches include criterion: %s (+1)", tag.Subject))
		}
	}

	if study.HasTag(models.TagInclude, riverTagSubject) {
		score += 3
		reasons = append(reasons, "priority program (+3)")
	}

	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}
	return score, reasons
}

// hasConditionOverlap reports whether any participant condition tag appears
// among the study's bare or include_-prefixed tags.
func hasConditionOverlap(profile *models.ParticipantProfile, study *models.StudyRecord) bool {
	for _, tag := range study.Tags {
		if tag.Kind != models.TagCondition && tag.Kind != models.TagInclude {
			continue
		}
		if profile.HasTag(tag.Subject) {
			return true
		}
	}
	return false
}

func isSpecialProgram(study *models.StudyRecord) bool {
	return strings.Contains(strings.ToLower(study.Title), riverKeyword) ||
		study.HasTag(models.TagInclude, riverTagSubject)
}

// attachAggregates records, on the profile, the union of tags across the
// returned matches and the matched titles in rank order.
func attachAggregates(profile *models.ParticipantProfile, results []models.MatchResult) {
	tagSet := map[string]struct{}{}
	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.Study.Title)
		for _, tag := range r.Study.Tags {
			tagSet[tag.String()] = struct{}{}
		}
	}
	tags := make([]string, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	if len(tags) == 0 {
		tags = nil
	}
	if len(titles) == 0 {
		titles = nil
	}
	profile.MatchedTags = tags
	profile.MatchedStudyTitles = titles
}
