package synthesis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCompleter records prompts and returns canned answers.
type fakeCompleter struct {
	prompts []string
	answer  string
	err     error
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.answer, nil
}

// fakeRetriever records the query and returns canned documents.
type fakeRetriever struct {
	gotQuery string
	gotK     int
	docs     []string
	err      error
}

func (r *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	r.gotQuery = query
	r.gotK = k
	return r.docs, r.err
}

func TestNewRequiresCompleter(t *testing.T) {
	_, err := New(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestSynthesizeTwoStages(t *testing.T) {
	completer := &fakeCompleter{answer: "  the final answer \n"}
	retriever := &fakeRetriever{docs: []string{"fresh doc one", "fresh doc two"}}

	s, err := New(completer, zap.NewNop())
	require.NoError(t, err)

	answer, err := s.Synthesize(context.Background(), "what changed?",
		[]string{"ranked one", "ranked two"}, retriever, 10)
	require.NoError(t, err)

	// Stage one: the refinement prompt is the re-retrieval query and
	// carries both the reranked documents and the question.
	assert.Contains(t, retriever.gotQuery, "ranked one ranked two")
	assert.Contains(t, retriever.gotQuery, "what changed?")
	assert.Contains(t, retriever.gotQuery, "refine the search")
	assert.Equal(t, 10, retriever.gotK)

	// Stage two: one completion call whose prompt stuffs the re-retrieved
	// documents, not the first-stage ones.
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "fresh doc one")
	assert.Contains(t, completer.prompts[0], "fresh doc two")
	assert.Contains(t, completer.prompts[0], "what changed?")
	assert.NotContains(t, completer.prompts[0], "ranked one")

	assert.Equal(t, "the final answer", answer.Text)
	assert.Equal(t, []string{"fresh doc one", "fresh doc two"}, answer.Sources)
}

func TestSynthesizeFallsBackWhenReRetrievalEmpty(t *testing.T) {
	completer := &fakeCompleter{answer: "answer"}
	retriever := &fakeRetriever{docs: nil}

	s, err := New(completer, zap.NewNop())
	require.NoError(t, err)

	answer, err := s.Synthesize(context.Background(), "q", []string{"ranked"}, retriever, 5)
	require.NoError(t, err)

	assert.Contains(t, completer.prompts[0], "ranked")
	assert.Equal(t, []string{"ranked"}, answer.Sources)
}

func TestSynthesizeRetrieverError(t *testing.T) {
	completer := &fakeCompleter{answer: "answer"}
	retriever := &fakeRetriever{err: errors.New("store down")}

	s, err := New(completer, zap.NewNop())
	require.NoError(t, err)

	_, err = s.Synthesize(context.Background(), "q", []string{"d"}, retriever, 5)
	assert.Error(t, err)
	assert.Empty(t, completer.prompts)
}

func TestSynthesizeCompleterError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model down")}
	retriever := &fakeRetriever{docs: []string{"d"}}

	s, err := New(completer, zap.NewNop())
	require.NoError(t, err)

	_, err = s.Synthesize(context.Background(), "q", []string{"d"}, retriever, 5)
	assert.Error(t, err)
}
