package checkout

import (
	"context"
	"log"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

// unlockLibrary grants every purchased book, one at a time in cart order.
// A failed unlock is recorded and the loop moves on; the remaining books
// must still get their chance.
func (s *Service) unlockLibrary(ctx context.Context, snapshot domain.CartSnapshot) []UnlockResult {
	results := make([]UnlockResult, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		if err := s.library.AddToLibrary(ctx, item.BookID); err != nil {
			log.Printf("library unlock failed for book %v: %v", item.BookID, err)
			results = append(results, UnlockResult{BookID: item.BookID, Error: err.Error()})
			continue
		}
		results = append(results, UnlockResult{BookID: item.BookID, Unlocked: true})
	}
	return results
}
