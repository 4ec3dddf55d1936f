// Package engine implements the session state machine for the
// statecraft simulation: turn phases, policy management, event
// resolution, ending detection and save/load.
package engine

import (
	"fmt"

	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
	"github.com/jwebster45206/statecraft-engine/pkg/resource"
)

// Engine line spoken when a turn closes with no pending events.
const turnSummaryLine = "연산 완료. 이번 턴의 국가 지표 변동 보고서가 준비되었습니다."

// EnactedFlagPrefix marks one-shot policies in the flag set.
const EnactedFlagPrefix = "enacted_"

// Engine is the session state machine. One Engine instance holds one
// player session; it is not safe for concurrent use. Callers (the
// transport layer) must serialize operations per session.
type Engine struct {
	catalogs *catalog.Catalogs
	rand     Rand
	clock    Clock

	ledger          resource.Ledger
	flags           map[string]bool
	activePolicies  []string
	cooldowns       map[string]int
	eventHistory    []EventRecord
	unlockedEndings []string
	phase           Phase
	pendingEvents   []string
	eventCursor     int
	currentView     string
	turnReport      map[string]float64
	dialogue        *catalog.Dialogue
	history         []TurnRecord
	ended           bool
	endingID        string
}

// New creates an engine bound to the given catalogs. A nil rand or
// clock falls back to system defaults.
func New(c *catalog.Catalogs, rnd Rand, clock Clock) *Engine {
	if rnd == nil {
		rnd = NewRand(SystemClock().Now().UnixNano())
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{
		catalogs: c,
		rand:     rnd,
		clock:    clock,
	}
}

// condView adapts ledger + flags to the catalog condition evaluator.
type condView struct {
	ledger resource.Ledger
	flags  map[string]bool
}

func (v condView) Resource(name string) float64 { return v.ledger.Get(name) }
func (v condView) Flag(name string) bool        { return v.flags[name] }

func (e *Engine) view() condView {
	return condView{ledger: e.ledger, flags: e.flags}
}

// Start resets the session to its initial state. Unlocked endings are
// deliberately carried across resets.
func (e *Engine) Start() *State {
	e.ledger = resource.NewLedger()
	e.flags = make(map[string]bool)
	e.activePolicies = nil
	e.cooldowns = make(map[string]int)
	e.eventHistory = nil
	e.phase = PhaseAction
	e.pendingEvents = nil
	e.eventCursor = 0
	e.currentView = catalog.DefaultView
	e.turnReport = nil
	e.history = nil
	e.ended = false
	e.endingID = ""
	if e.unlockedEndings == nil {
		e.unlockedEndings = []string{}
	}
	e.dialogue = e.greetingFor(catalog.DefaultView)
	return e.State()
}

// NavigateTo moves the current view to a department.
func (e *Engine) NavigateTo(departmentID string) (*State, error) {
	if e.phase != PhaseAction {
		return nil, fmt.Errorf("%w: navigate requires the action phase", ErrInvalidPhase)
	}
	dept := e.catalogs.Department(departmentID)
	if dept == nil {
		return nil, fmt.Errorf("%w: department %q", ErrNotFound, departmentID)
	}
	e.currentView = departmentID
	e.dialogue = &catalog.Dialogue{
		Speaker:  dept.Advisor.Name,
		Portrait: dept.Advisor.Portrait,
		Text:     dept.Advisor.Greeting,
	}
	return e.State(), nil
}

// TogglePolicy activates or deactivates a toggle policy. Deactivation
// is unconditional and grants no refund.
func (e *Engine) TogglePolicy(policyID string) (*State, error) {
	if e.phase != PhaseAction {
		return nil, fmt.Errorf("%w: policies can only be changed in the action phase", ErrInvalidPhase)
	}
	p := e.catalogs.Policy(policyID)
	if p == nil || p.Type != catalog.PolicyToggle {
		return nil, fmt.Errorf("%w: toggle policy %q", ErrNotFound, policyID)
	}

	if e.isPolicyActive(policyID) {
		e.removeActivePolicy(policyID)
		e.ledger.Clamp()
		e.dialogue = e.policyDialogue(p)
		return e.State(), nil
	}

	if !p.Conditions.Evaluate(e.view()) {
		return nil, fmt.Errorf("%w: policy %q activation conditions", ErrConditionsUnmet, policyID)
	}
	for _, inc := range p.Incompatible {
		if e.isPolicyActive(inc) {
			name := inc
			if cp := e.catalogs.Policy(inc); cp != nil {
				name = cp.Name
			}
			return nil, fmt.Errorf("%w: %s", ErrIncompatiblePolicy, name)
		}
	}
	// Check every cost resource before deducting any, so a failure
	// never leaves a partial deduction behind.
	for res, amount := range p.Cost {
		if e.ledger.Get(res) < amount {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientResources, res)
		}
	}

	for res, amount := range p.Cost {
		e.ledger.Apply(res, -amount)
	}
	e.activePolicies = append(e.activePolicies, policyID)
	e.ledger.Clamp()
	e.dialogue = e.policyDialogue(p)
	return e.State(), nil
}

// EnactPolicy applies a one-shot policy. Negative effect deltas act as
// costs and are checked against the ledger before anything is applied.
func (e *Engine) EnactPolicy(policyID string) (*State, error) {
	if e.phase != PhaseAction {
		return nil, fmt.Errorf("%w: policies can only be changed in the action phase", ErrInvalidPhase)
	}
	p := e.catalogs.Policy(policyID)
	if p == nil || p.Type != catalog.PolicyEnact {
		return nil, fmt.Errorf("%w: enact policy %q", ErrNotFound, policyID)
	}
	if e.flags[EnactedFlagPrefix+policyID] {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyEnacted, policyID)
	}
	if !p.Conditions.Evaluate(e.view()) {
		return nil, fmt.Errorf("%w: policy %q activation conditions", ErrConditionsUnmet, policyID)
	}
	for res, amount := range p.EnactEffects {
		if amount < 0 && e.ledger.Get(res)+amount < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientResources, res)
		}
	}

	for res, amount := range p.EnactEffects {
		e.ledger.Apply(res, amount)
	}
	e.flags[EnactedFlagPrefix+policyID] = true
	e.ledger.Clamp()
	e.dialogue = e.policyDialogue(p)
	return e.State(), nil
}

// AdvanceTurn ends the action phase: runs the simulation, selects
// events, appends history and evaluates endings.
func (e *Engine) AdvanceTurn() (*State, error) {
	if e.phase != PhaseAction {
		return nil, fmt.Errorf("%w: the turn can only be ended in the action phase", ErrInvalidPhase)
	}

	e.turnReport = simulateTurn(e.ledger, e.activePolicies, e.catalogs)

	selected := selectEvents(e.catalogs, e.view(), e.cooldowns, e.rand)
	e.pendingEvents = e.pendingEvents[:0]
	for _, ev := range selected {
		e.pendingEvents = append(e.pendingEvents, ev.ID)
	}
	e.eventCursor = 0
	decrementCooldowns(e.cooldowns)

	e.history = append(e.history, TurnRecord{
		Turn:      int(e.ledger.Get(resource.CurrentTurn)),
		Year:      int(e.ledger.Get(resource.CurrentYear)),
		Month:     int(e.ledger.Get(resource.CurrentMonth)),
		Events:    append([]string(nil), e.pendingEvents...),
		Timestamp: e.clock.Now(),
	})

	if ending := checkEndings(e.catalogs, e.view()); ending != nil {
		e.reachEnding(ending)
		return e.State(), nil
	}

	if len(e.pendingEvents) > 0 {
		e.phase = PhaseEvent
		first := e.catalogs.Event(e.pendingEvents[0])
		e.dialogue = &catalog.Dialogue{
			Speaker:  first.Dialogue.Speaker,
			Portrait: first.Dialogue.Portrait,
			Text:     first.Dialogue.Text,
		}
	} else {
		e.phase = PhaseReport
		e.dialogue = e.summaryDialogue()
	}
	return e.State(), nil
}

// ResolveEvent applies the chosen response to the current pending
// event and advances the event cursor.
func (e *Engine) ResolveEvent(choiceID string) (*State, error) {
	if e.phase != PhaseEvent {
		return nil, fmt.Errorf("%w: no event is awaiting resolution", ErrInvalidPhase)
	}
	if e.eventCursor >= len(e.pendingEvents) {
		return nil, fmt.Errorf("%w: no pending event at cursor", ErrNotFound)
	}
	ev := e.catalogs.Event(e.pendingEvents[e.eventCursor])
	if ev == nil {
		return nil, fmt.Errorf("%w: event %q", ErrNotFound, e.pendingEvents[e.eventCursor])
	}

	var choice *catalog.Choice
	for i := range ev.Choices {
		if ev.Choices[i].ID == choiceID {
			choice = &ev.Choices[i]
			break
		}
	}
	if choice == nil {
		return nil, fmt.Errorf("%w: choice %q of event %q", ErrNotFound, choiceID, ev.ID)
	}
	if !choice.Conditions.Evaluate(e.view()) {
		return nil, fmt.Errorf("%w: choice %q", ErrConditionsUnmet, choiceID)
	}

	for res, amount := range choice.Effects {
		e.ledger.Apply(res, amount)
	}
	for flag, val := range choice.Flags {
		e.flags[flag] = val
	}
	e.ledger.Clamp()

	e.eventHistory = append(e.eventHistory, EventRecord{
		EventID:   ev.ID,
		ChoiceID:  choice.ID,
		Turn:      int(e.ledger.Get(resource.CurrentTurn)),
		Timestamp: e.clock.Now(),
	})
	e.cooldowns[ev.ID] = ev.CooldownTurns()

	e.dialogue = &catalog.Dialogue{
		Speaker:  ev.Dialogue.Speaker,
		Portrait: ev.Dialogue.Portrait,
		Text:     choice.Dialogue,
	}
	e.eventCursor++
	if e.eventCursor >= len(e.pendingEvents) {
		e.phase = PhaseReport
		e.dialogue = e.summaryDialogue()
	}

	// An event resolution can itself reach an ending, short-circuiting
	// any remaining queued events.
	if ending := checkEndings(e.catalogs, e.view()); ending != nil {
		e.reachEnding(ending)
	}
	return e.State(), nil
}

// DismissReport acknowledges the turn report and returns to the
// action phase at the default overview.
func (e *Engine) DismissReport() (*State, error) {
	if e.phase != PhaseReport {
		return nil, fmt.Errorf("%w: no report to dismiss", ErrInvalidPhase)
	}
	e.turnReport = nil
	e.currentView = catalog.DefaultView
	e.phase = PhaseAction
	e.dialogue = e.greetingFor(catalog.DefaultView)
	return e.State(), nil
}

// reachEnding records an ending idempotently. The phase returns to
// action rather than hard-stopping: the player may keep playing past
// an ending, which only flags the session for presentation.
func (e *Engine) reachEnding(ending *catalog.Ending) {
	e.ended = true
	e.endingID = ending.ID
	e.phase = PhaseAction
	found := false
	for _, id := range e.unlockedEndings {
		if id == ending.ID {
			found = true
			break
		}
	}
	if !found {
		e.unlockedEndings = append(e.unlockedEndings, ending.ID)
	}
	e.dialogue = &catalog.Dialogue{
		Speaker:  ending.Dialogue.Speaker,
		Portrait: ending.Dialogue.Portrait,
		Text:     ending.Dialogue.Text,
	}
}

// UnlockedEndings returns a copy of the unlocked-endings set.
func (e *Engine) UnlockedEndings() []string {
	return append([]string(nil), e.unlockedEndings...)
}

// MergeUnlockedEndings unions previously persisted endings into the
// session. The set never shrinks.
func (e *Engine) MergeUnlockedEndings(ids []string) {
	for _, id := range ids {
		found := false
		for _, have := range e.unlockedEndings {
			if have == id {
				found = true
				break
			}
		}
		if !found {
			e.unlockedEndings = append(e.unlockedEndings, id)
		}
	}
}

func (e *Engine) isPolicyActive(id string) bool {
	for _, a := range e.activePolicies {
		if a == id {
			return true
		}
	}
	return false
}

func (e *Engine) removeActivePolicy(id string) {
	for i, a := range e.activePolicies {
		if a == id {
			e.activePolicies = append(e.activePolicies[:i], e.activePolicies[i+1:]...)
			return
		}
	}
}

func (e *Engine) greetingFor(departmentID string) *catalog.Dialogue {
	dept := e.catalogs.Department(departmentID)
	if dept == nil {
		return nil
	}
	return &catalog.Dialogue{
		Speaker:  dept.Advisor.Name,
		Portrait: dept.Advisor.Portrait,
		Text:     dept.Advisor.Greeting,
	}
}

func (e *Engine) policyDialogue(p *catalog.Policy) *catalog.Dialogue {
	dept := e.catalogs.Department(p.Department)
	if dept == nil {
		return nil
	}
	return &catalog.Dialogue{
		Speaker:  dept.Advisor.Name,
		Portrait: dept.Advisor.Portrait,
		Text:     p.Description,
	}
}

func (e *Engine) summaryDialogue() *catalog.Dialogue {
	d := e.greetingFor(catalog.DefaultView)
	if d == nil {
		return &catalog.Dialogue{Text: turnSummaryLine}
	}
	d.Text = turnSummaryLine
	return d
}

// State builds the full session snapshot. Policy and choice
// annotations are computed live against the current ledger and flags.
func (e *Engine) State() *State {
	s := &State{
		Resources:       e.ledger.Clone(),
		ActivePolicies:  append([]string{}, e.activePolicies...),
		Flags:           cloneFlags(e.flags),
		TurnPhase:       e.phase,
		CurrentView:     e.currentView,
		CurrentTurn:     int(e.ledger.Get(resource.CurrentTurn)),
		CurrentYear:     int(e.ledger.Get(resource.CurrentYear)),
		CurrentMonth:    int(e.ledger.Get(resource.CurrentMonth)),
		Departments:     e.catalogs.Departments,
		TurnReport:      e.turnReport,
		Dialogue:        e.dialogue,
		IsEnding:        e.ended,
		UnlockedEndings: append([]string{}, e.unlockedEndings...),
	}

	if dept := e.catalogs.Department(e.currentView); dept != nil {
		s.CurrentDept = dept
		s.Policies = e.annotatePolicies(e.catalogs.DepartmentPolicies(dept.ID))
	}

	if e.ended {
		for i := range e.catalogs.Endings {
			if e.catalogs.Endings[i].ID == e.endingID {
				s.EndingData = &e.catalogs.Endings[i]
				break
			}
		}
	}

	if e.phase == PhaseEvent && e.eventCursor < len(e.pendingEvents) {
		if ev := e.catalogs.Event(e.pendingEvents[e.eventCursor]); ev != nil {
			view := e.view()
			evView := &EventView{
				ID:       ev.ID,
				Name:     ev.Name,
				Dialogue: ev.Dialogue,
			}
			for _, ch := range ev.Choices {
				evView.Choices = append(evView.Choices, ChoiceView{
					ID:        ch.ID,
					Text:      ch.Text,
					Available: ch.Conditions.Evaluate(view),
				})
			}
			s.CurrentEvent = evView
		}
	}
	return s
}

func (e *Engine) annotatePolicies(policies []catalog.Policy) []PolicyView {
	view := e.view()
	out := make([]PolicyView, 0, len(policies))
	for _, p := range policies {
		pv := PolicyView{Policy: p}
		pv.IsActive = e.isPolicyActive(p.ID)
		pv.IsEnacted = e.flags[EnactedFlagPrefix+p.ID]
		pv.CanActivate = e.canActivate(&p, view)
		out = append(out, pv)
	}
	return out
}

func (e *Engine) canActivate(p *catalog.Policy, view condView) bool {
	if !p.Conditions.Evaluate(view) {
		return false
	}
	switch p.Type {
	case catalog.PolicyToggle:
		if e.isPolicyActive(p.ID) {
			return false
		}
		for _, inc := range p.Incompatible {
			if e.isPolicyActive(inc) {
				return false
			}
		}
		for res, amount := range p.Cost {
			if e.ledger.Get(res) < amount {
				return false
			}
		}
	case catalog.PolicyEnact:
		if e.flags[EnactedFlagPrefix+p.ID] {
			return false
		}
		for res, amount := range p.EnactEffects {
			if amount < 0 && e.ledger.Get(res)+amount < 0 {
				return false
			}
		}
	}
	return true
}

func cloneFlags(flags map[string]bool) map[string]bool {
	out := make(map[string]bool, len(flags))
	for k, v := range flags {
		out[k] = v
	}
	return out
}
