package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cardforge/cardforge/pkg/workflow"
)

// RecommendationLimit is the default number of merchants suggested per run.
const RecommendationLimit = 3

// Occasions that usually collect signatures from several people.
var groupOccasions = map[string]bool{
	"birthday":    true,
	"retirement":  true,
	"farewell":    true,
	"wedding":     true,
	"graduation":  true,
	"sympathy":    true,
	"anniversary": true,
}

// Recommender fills gift recommendations and suggested contacts.
type Recommender struct {
	gifts GiftRecommender
	opts  options
}

// NewRecommender creates the shopping stage.
func NewRecommender(gifts GiftRecommender, opts ...Option) *Recommender {
	return &Recommender{gifts: gifts, opts: buildOptions("recommender", opts)}
}

// Name returns workflow.StepShopping.
func (r *Recommender) Name() workflow.Step { return workflow.StepShopping }

// Run ranks merchants against the recipient's interests and occasion.
func (r *Recommender) Run(ctx context.Context, state *workflow.State) error {
	in := state.CardInput()
	state.GiftRecommendations = r.gifts.Recommend(ctx, in.Interests, in.Occasion, r.opts.limit)
	state.SuggestedContacts = suggestContacts(in.RecipientName, in.Occasion)

	r.opts.log.DebugContext(ctx, "gifts recommended",
		"workflow_id", state.ID,
		"user_id", state.UserID,
		"count", len(state.GiftRecommendations),
	)
	return nil
}

func suggestContacts(recipient, occasion string) []workflow.Contact {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return []workflow.Contact{}
	}
	occasion = strings.ToLower(strings.TrimSpace(occasion))

	contacts := []workflow.Contact{{
		Name:         recipient,
		Relationship: "recipient",
		Reason:       fmt.Sprintf("Send the finished card to %s", recipient),
	}}
	if groupOccasions[occasion] {
		contacts = append(contacts, workflow.Contact{
			Name:         "Friends of " + recipient,
			Relationship: "group",
			Reason:       fmt.Sprintf("Invite others to sign a group %s card", occasion),
		})
	}
	return contacts
}
