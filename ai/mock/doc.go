// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder satisfies ai.Embedder without any external service. By default
// it returns deterministic unit vectors derived from the text hash.
//
//	embedder := mock.NewMockEmbedder().
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return nil, errors.New("provider down")
//	    })
//
//	count := embedder.CallCount()
package mock
