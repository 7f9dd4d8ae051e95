package outline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/minbarhq/minbar-api/databases/mocks"
	"github.com/minbarhq/minbar-api/models"
	"github.com/minbarhq/minbar-api/outline"
)

func TestManagerReusesLoadedOutline(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(storedCards(), nil).Once()
	cardDB.On("MaxOrdinal", mock.Anything, "d1").Return(3, nil).Once()

	m := outline.NewManager(cardDB, savedDocDB())

	first, err := m.GetOrCreate(context.Background(), "d1")
	assert.NoError(t, err)
	second, err := m.GetOrCreate(context.Background(), "d1")
	assert.NoError(t, err)

	// the second call must not hit the store again
	assert.Same(t, first, second)
	cardDB.AssertNumberOfCalls(t, "Find", 1)
}

func TestManagerLoadFailureLeavesNoSession(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	m := outline.NewManager(cardDB, savedDocDB())

	_, err := m.GetOrCreate(context.Background(), "d1")
	assert.Error(t, err)
	assert.Nil(t, m.Get("d1"))
}

func TestManagerClose(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Card{}, nil)
	cardDB.On("MaxOrdinal", mock.Anything, "d1").Return(0, nil)

	m := outline.NewManager(cardDB, savedDocDB())
	_, err := m.GetOrCreate(context.Background(), "d1")
	assert.NoError(t, err)
	assert.NotNil(t, m.Get("d1"))

	m.Close("d1")
	assert.Nil(t, m.Get("d1"))
}

func TestManagerEvictIdle(t *testing.T) {
	cardDB := &mocks.CardDatabase{}
	cardDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Card{}, nil)
	cardDB.On("MaxOrdinal", mock.Anything, "d1").Return(0, nil)

	m := outline.NewManager(cardDB, savedDocDB())
	_, err := m.GetOrCreate(context.Background(), "d1")
	assert.NoError(t, err)

	assert.Equal(t, 0, m.EvictIdle(time.Hour))

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, m.EvictIdle(time.Millisecond))
	assert.Nil(t, m.Get("d1"))
}
