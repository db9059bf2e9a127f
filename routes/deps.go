package routes

import (
	"context"

	"slide-deck-platform/models"
	"slide-deck-platform/services"
)

// The handlers depend on these slices of the services rather than the
// concrete types, so tests can substitute fakes for the failure paths.

type rendererProber interface {
	Probe(ctx context.Context) bool
}

type deckConverter interface {
	Convert(ctx context.Context, inputPath, id, title string, rendererAvailable bool) services.ConversionResult
}

type presentationStore interface {
	Save(ctx context.Context, p *models.Presentation) error
	Verify(ctx context.Context, id string) bool
	Find(ctx context.Context, id string) (*models.Presentation, error)
	List(ctx context.Context) ([]*models.Presentation, error)
	Update(ctx context.Context, id string, update *models.UpdateRequest) (bool, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	IncrementView(ctx context.Context, id string) error
}

type presentationIndex interface {
	AddPresentation(p *models.Presentation)
	ApplyUpdate(p *models.Presentation)
	RemovePresentation(id string)
	Topics() []string
	IDsByTopic(ctx context.Context, pattern string) []string
	MarkSeen(userID, presentationID string)
	HasSeen(userID, presentationID string) bool
	UnseenByTopic(ctx context.Context, userID, topic string) []string
	Rebuild(ctx context.Context) error
}
