package agent

import (
	"fmt"
	"sort"

	"restaurant-agent/internal/common/metrics"
	"restaurant-agent/internal/models"
	"restaurant-agent/internal/search"
)

// Transition identifies one edge of the dialogue state machine.
type Transition struct {
	State State
	Label models.ConfirmationIntent
}

type handlerFunc func(t *turn) (models.ChatResponse, error)

// transitions covers every pending state paired with every confirmation label.
var transitions = map[Transition]handlerFunc{
	{StateAwaitingSearchAck, models.ConfirmationConfirm}:  (*turn).chooseRestaurant,
	{StateAwaitingSearchAck, models.ConfirmationReject}:   (*turn).reject,
	{StateAwaitingSearchAck, models.ConfirmationSelect}:   (*turn).selectRestaurant,
	{StateAwaitingSearchAck, models.ConfirmationContinue}: (*turn).search,
	{StateAwaitingSearchAck, models.ConfirmationUnknown}:  (*turn).fresh,

	{StateAwaitingReservationConfirmation, models.ConfirmationConfirm}:  (*turn).proceed,
	{StateAwaitingReservationConfirmation, models.ConfirmationReject}:   (*turn).reject,
	{StateAwaitingReservationConfirmation, models.ConfirmationSelect}:   (*turn).selectRestaurant,
	{StateAwaitingReservationConfirmation, models.ConfirmationContinue}: (*turn).search,
	{StateAwaitingReservationConfirmation, models.ConfirmationUnknown}:  (*turn).fresh,
}

var intentHandlers = map[models.Intent]handlerFunc{
	models.IntentSearch:  (*turn).search,
	models.IntentReserve: (*turn).reserve,
}

// Transitions returns the table's keys ordered by state then label.
func Transitions() []Transition {
	order := make(map[models.ConfirmationIntent]int, len(models.ConfirmationIntents))
	for i, l := range models.ConfirmationIntents {
		order[l] = i
	}

	out := make([]Transition, 0, len(transitions))
	for k := range transitions {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return order[out[i].Label] < order[out[j].Label]
	})
	return out
}

func respond(reply string, next models.ConversationContext) models.ChatResponse {
	resp := models.ChatResponse{Reply: reply, Context: next}
	if next.PendingAction != nil {
		pa := *next.PendingAction
		resp.PendingAction = &pa
	}
	return resp
}

// search runs a ranked search for the current message.
func (t *turn) search() (models.ChatResponse, error) {
	q, err := t.o.extractor.Extract(t.ctx, t.message)
	if err != nil {
		return models.ChatResponse{}, err
	}

	results := t.o.engine.Ranked(q)
	metrics.SearchRequests.WithLabelValues(string(models.SearchModeRanked)).Inc()
	metrics.SearchResults.WithLabelValues(string(models.SearchModeRanked)).Observe(float64(len(results)))
	t.o.obs.RecordSearch(t.ctx, string(models.SearchModeRanked), len(results))

	return respond(search.Summarize(results), models.ConversationContext{
		LastIntent:        models.IntentSearch,
		LastRestaurantIDs: models.IDs(results),
		PendingAction:     models.SearchAction(),
	}), nil
}

func (t *turn) reserve() (models.ChatResponse, error) {
	return respond(replyReserve, t.awaitReservation()), nil
}

func (t *turn) reject() (models.ChatResponse, error) {
	return respond(replyReject, models.EmptyContext()), nil
}

func (t *turn) selectRestaurant() (models.ChatResponse, error) {
	return respond(replySelect, t.awaitReservation()), nil
}

func (t *turn) chooseRestaurant() (models.ChatResponse, error) {
	return respond(replyChooseRestaurant, t.awaitReservation()), nil
}

// proceed hands the reservation off; the context stays as it was.
func (t *turn) proceed() (models.ChatResponse, error) {
	reply := replyProceed
	if t.o.reservationName != "" {
		reply = fmt.Sprintf(replyProceedNamedPattern, t.o.reservationName)
	}
	return respond(reply, t.prior.Clone()), nil
}

func (t *turn) awaitReservation() models.ConversationContext {
	next := t.prior.Clone()
	next.LastIntent = models.IntentReserve
	next.PendingAction = models.ReservationAction()
	return next
}
