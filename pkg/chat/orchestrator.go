package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/catalog"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/logger"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/intake"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/llm"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/matching"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/observability/metrics"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/reply"
)

// Completer is the LLM boundary the orchestrator drives.
type Completer interface {
	Complete(ctx context.Context, history []llm.Message) (string, error)
}

// EventPublisher carries matched leads onto the event bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

const (
	sourceName = "chat-service"

	maxQuestionsPerStudy = 3
)

// Orchestrator is the session state machine behind POST /chat. All external
// failures degrade to apologetic user-facing replies; Handle never fails.
type Orchestrator struct {
	store     SessionStore
	llm       Completer
	builder   *intake.Builder
	engine    *matching.Engine
	catalog   catalog.Source
	publisher EventPublisher
}

func NewOrchestrator(store SessionStore, completer Completer, builder *intake.Builder, engine *matching.Engine, source catalog.Source, publisher EventPublisher) *Orchestrator {
	return &Orchestrator{
		store:     store,
		llm:       completer,
		builder:   builder,
		engine:    engine,
		catalog:   source,
		publisher: publisher,
	}
}

func (o *Orchestrator) Handle(ctx context.Context, sessionID, message string) string {
	metrics.IncChatsHandled()

	if containsRedFlag(message) {
		return crisisReply
	}

	session, err := o.store.Get(ctx, sessionID)
	if err != nil {
		logger.Log.WithError(err).WithField("session_id", sessionID).Error("Failed to load session, starting fresh")
		session = nil
	}
	if session == nil {
		session = &Session{History: []llm.Message{{Role: llm.RoleSystem, Content: llm.SystemPrompt}}}
	}

	if session.RiverPending && isAffirmative(message) {
		// Participant opted into the River Program; ask its follow-ups and
		// drop any parallel study selection.
		session.Matches = nil
		session.SelectedTitles = nil
		o.save(ctx, sessionID, session)
		return "Great! To confirm your eligibility for the River Program, please answer the following:\n\n- " +
			strings.Join(riverFollowUps, "\n- ")
	}

	if len(session.Matches) > 0 && len(session.SelectedTitles) == 0 {
		return o.handleSelection(ctx, sessionID, session, message)
	}

	session.History = append(session.History, llm.Message{Role: llm.RoleUser, Content: message})
	assistant, err := o.llm.Complete(ctx, session.History)
	if err != nil {
		logger.Log.WithError(err).WithField("session_id", sessionID).Error("LLM completion failed")
		return "Sorry, I’m having trouble right now. Please try again in a moment."
	}
	session.History = append(session.History, llm.Message{Role: llm.RoleAssistant, Content: assistant})

	fields, ok := llm.ExtractJSON(assistant)
	if !ok {
		// Intake is still in progress; relay the model's follow-up.
		o.save(ctx, sessionID, session)
		return assistant
	}

	if session.RiverPending {
		return o.handleRiverAnswers(ctx, sessionID, session, fields)
	}
	return o.handleIntake(ctx, sessionID, session, fields)
}

// handleSelection resolves which offered studies the participant picked and
// asks the follow-up questions their tags call for.
func (o *Orchestrator) handleSelection(ctx context.Context, sessionID string, session *Session, message string) string {
	selected := parseSelection(message, session.Matches)
	if len(selected) == 0 {
		return "I didn’t catch which study you meant. Can you tell me the number or name again?"
	}

	var blocks []string
	riverIncluded := false
	titles := make([]string, 0, len(selected))
	for _, m := range selected {
		titles = append(titles, m.Study.Title)
		if strings.EqualFold(strings.TrimSpace(m.Study.Title), matching.RiverProgramTitle) {
			riverIncluded = true
		}
		if qs := questionsForStudy(m.Study); len(qs) > 0 {
			blocks = append(blocks, fmt.Sprintf("For **%s**:\n- %s", m.Study.Title, strings.Join(qs, "\n- ")))
		}
	}
	session.SelectedTitles = titles

	if riverIncluded {
		session.RiverPending = true
		o.save(ctx, sessionID, session)
		return "Great choice! The River Program offers at-home ketamine therapy via telehealth.\n\n**Would you like to continue with this one? (Yes or No)**"
	}

	o.save(ctx, sessionID, session)
	if len(blocks) == 0 {
		return "Great! Tell me a bit more about yourself and I’ll confirm your eligibility."
	}
	return "To confirm your eligibility, please answer the following:\n\n" + strings.Join(blocks, "\n\n")
}

// handleRiverAnswers merges the River follow-up answers into the last raw
// field map, re-normalizes, and finalizes the River lead.
func (o *Orchestrator) handleRiverAnswers(ctx context.Context, sessionID string, session *Session, fields map[string]interface{}) string {
	if session.LastRaw == nil {
		session.LastRaw = map[string]interface{}{}
	}
	for key, value := range fields {
		session.LastRaw[strings.ToLower(key)] = value
	}

	profile := o.builder.Normalize(ctx, session.LastRaw)
	if missing := intake.MissingRequired(profile); len(missing) > 0 {
		logger.Log.WithField("missing", missing).Warn("Missing fields in River follow-up")
		o.save(ctx, sessionID, session)
		return "Thanks! Just one last step before we confirm your eligibility:\n\n- " + formatMissing(missing)
	}

	profile.RiversMatch = true
	session.LastProfile = &profile
	session.RiverPending = false
	session.Matches = nil
	session.SelectedTitles = nil

	o.publishLead(ctx, profile)
	o.save(ctx, sessionID, session)
	return "Thanks! You’re all set for the River Program. A coordinator will reach out to you soon."
}

// handleIntake normalizes the extracted fields and either re-prompts for
// missing data, confirms previously selected studies, or runs a fresh match.
func (o *Orchestrator) handleIntake(ctx context.Context, sessionID string, session *Session, fields map[string]interface{}) string {
	if session.LastRaw == nil {
		session.LastRaw = map[string]interface{}{}
	}
	for key, value := range fields {
		session.LastRaw[strings.ToLower(key)] = value
	}

	profile := o.builder.Normalize(ctx, session.LastRaw)
	if missing := intake.MissingRequired(profile); len(missing) > 0 {
		o.save(ctx, sessionID, session)
		return "Thanks! A few more details before I can match you to studies:\n\n- " + formatMissing(missing)
	}
	metrics.IncIntakesCompleted()

	studies, err := o.catalog.ListActive(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to load study catalog")
		o.save(ctx, sessionID, session)
		return "Sorry, I couldn’t load the study catalog right now. Please try again shortly."
	}

	matches := o.engine.Match(&profile, studies, !RiverEligible(&profile))
	metrics.ObserveMatchesReturned(len(matches))
	session.LastProfile = &profile

	if len(session.SelectedTitles) > 0 {
		confirmed := filterByTitles(matches, session.SelectedTitles)
		session.Matches = nil
		session.SelectedTitles = nil
		o.publishLead(ctx, profile)
		o.save(ctx, sessionID, session)

		if len(confirmed) == 0 {
			return "Thanks! Unfortunately, based on your responses, none of your selected studies seem to be a match. Want to see other options?"
		}
		return "Thanks! Based on your answers, you're a confirmed match for the following studies:\n\n" +
			reply.FormatMatches(confirmed, profile.Coordinates)
	}

	session.Matches = matches
	o.save(ctx, sessionID, session)

	if len(matches) == 0 {
		return reply.FormatMatches(matches, profile.Coordinates)
	}
	return reply.FormatMatches(matches, profile.Coordinates) +
		"\n\nReply with the number or name of any study you’d like to check further."
}

func (o *Orchestrator) publishLead(ctx context.Context, profile models.ParticipantProfile) {
	if o.publisher == nil {
		return
	}
	lead := models.Lead{
		ID:        uuid.New().String(),
		Profile:   profile,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.publisher.PublishEvent(ctx, "lead", sourceName, map[string]interface{}{"lead": lead}); err != nil {
		logger.Log.WithError(err).WithField("lead_id", lead.ID).Error("Failed to publish lead event")
		metrics.IncLeadsFailed()
		return
	}
	metrics.IncLeadsPublished()
}

func (o *Orchestrator) save(ctx context.Context, sessionID string, session *Session) {
	if err := o.store.Put(ctx, sessionID, session); err != nil {
		logger.Log.WithError(err).WithField("session_id", sessionID).Error("Failed to persist session")
	}
}

// RiverEligible applies the River Program's bespoke intake carve-out; a
// participant failing it sees the catalog with the program excluded.
func RiverEligible(profile *models.ParticipantProfile) bool {
	if profile.Age == nil || *profile.Age < 21 || *profile.Age > 75 {
		return false
	}
	if profile.State != "CA" && profile.State != "MT" {
		return false
	}
	diagnosis := strings.ToLower(profile.DiagnosisHistory)
	hasQualifying := false
	for _, cond := range []string{"depression", "anxiety", "ptsd"} {
		if strings.Contains(diagnosis, cond) {
			hasQualifying = true
			break
		}
	}
	if !hasQualifying {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(profile.Bipolar), "no") {
		return false
	}
	bp := strings.ToLower(strings.TrimSpace(profile.BloodPressure))
	if bp == "yes" || bp == "unsure" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(profile.KetamineUse), "yes")
}

func containsRedFlag(message string) bool {
	lowered := strings.ToLower(message)
	for _, flag := range redFlags {
		if strings.Contains(lowered, flag) {
			return true
		}
	}
	return false
}

func isAffirmative(message string) bool {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "yes", "yeah", "sure":
		return true
	default:
		return false
	}
}

// parseSelection matches the participant's reply against the offered list
// by 1-based position or by title mention.
func parseSelection(message string, matches []models.MatchResult) []models.MatchResult {
	lowered := strings.ToLower(message)
	numbers := map[int]bool{}
	for _, token := range strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsDigit(r)
	}) {
		if n, err := strconv.Atoi(token); err == nil {
			numbers[n] = true
		}
	}

	var selected []models.MatchResult
	for i, m := range matches {
		title := strings.ToLower(strings.TrimSpace(m.Study.Title))
		if numbers[i+1] || (title != "" && strings.Contains(lowered, title)) {
			selected = append(selected, m)
		}
	}
	return selected
}

func questionsForStudy(study models.StudyRecord) []string {
	var questions []string
	for _, tag := range study.Tags {
		if q, ok := tagQuestionMap[tag.String()]; ok {
			questions = append(questions, q)
		}
		if len(questions) == maxQuestionsPerStudy {
			break
		}
	}
	return questions
}

func filterByTitles(matches []models.MatchResult, titles []string) []models.MatchResult {
	wanted := map[string]bool{}
	for _, t := range titles {
		wanted[strings.ToLower(strings.TrimSpace(t))] = true
	}
	var filtered []models.MatchResult
	for _, m := range matches {
		if wanted[strings.ToLower(strings.TrimSpace(m.Study.Title))] {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func formatMissing(missing []string) string {
	pretty := make([]string, 0, len(missing))
	for _, field := range missing {
		words := strings.Split(field, "_")
		for i, w := range words {
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		pretty = append(pretty, strings.Join(words, " "))
	}
	return strings.Join(pretty, "\n- ")
}
