package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/inventario/inventory"
)

type fakeGenerator struct {
	answer string
	err    error
	model  string
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	f.model = model
	f.prompt = prompt
	return f.answer, f.err
}

func factoryFor(g *fakeGenerator, keys *[]string) Factory {
	return func(_ context.Context, apiKey string) (Generator, error) {
		if keys != nil {
			*keys = append(*keys, apiKey)
		}
		return g, nil
	}
}

func TestAskSendsContextAndQuestion(t *testing.T) {
	gen := &fakeGenerator{answer: "3 notebooks"}
	var keys []string
	a := New("", factoryFor(gen, &keys), nil)

	got, err := a.Ask(context.Background(), "k-123", "tabela", "quantos notebooks?")
	require.NoError(t, err)
	assert.Equal(t, "3 notebooks", got)
	assert.Equal(t, DefaultModel, gen.model)
	assert.Equal(t, "Dados TI: tabela\nPergunta: quantos notebooks?", gen.prompt)
	assert.Equal(t, []string{"k-123"}, keys)
}

func TestAskValidatesInput(t *testing.T) {
	a := New("m", factoryFor(&fakeGenerator{answer: "x"}, nil), nil)

	_, err := a.Ask(context.Background(), "", "ctx", "q")
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = a.Ask(context.Background(), "key", "ctx", "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAskSurfacesFailures(t *testing.T) {
	a := New("m", factoryFor(&fakeGenerator{err: errors.New("quota exceeded")}, nil), nil)
	_, err := a.Ask(context.Background(), "key", "ctx", "q")
	require.ErrorIs(t, err, ErrQuery)
	assert.Contains(t, err.Error(), "quota exceeded")

	failing := New("m", func(context.Context, string) (Generator, error) {
		return nil, errors.New("bad key")
	}, nil)
	_, err = failing.Ask(context.Background(), "key", "ctx", "q")
	assert.ErrorIs(t, err, ErrQuery)

	empty := New("m", factoryFor(&fakeGenerator{answer: " "}, nil), nil)
	_, err = empty.Ask(context.Background(), "key", "ctx", "q")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestInventoryContextListsAssets(t *testing.T) {
	out := InventoryContext([]inventory.Asset{
		{Tag: "TAG-1", Type: "Computador", Model: "Dell", IP: "0.0.0.0", Sector: "RH", Status: "Ativo"},
	})
	for _, want := range []string{"PATRIMONIO", "TAG-1", "Dell", "RH"} {
		assert.True(t, strings.Contains(strings.ToUpper(out), strings.ToUpper(want)), want)
	}
}
