package app

import (
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/form3tech-oss/pact-builder/pkg/pactbuilder"
)

type ConcurrentBuilderStage struct {
	t                       *testing.T
	assert                  *assert.Assertions
	client                  *pactbuilder.Client
	pacts                   []*pactbuilder.Pact
	concurrentBuilders      int
	interactionsPerBuilder  int
	failedInteractionsMutex sync.Mutex
	failedInteractions      []error
}

func NewConcurrentBuilderStage(t *testing.T) (*ConcurrentBuilderStage, *ConcurrentBuilderStage, *ConcurrentBuilderStage) {
	client := pactbuilder.New(adminURL.String())
	if err := client.WaitForReady(); err != nil {
		t.Logf("Error waiting for the admin API: %v", err)
		t.Fail()
	}

	s := &ConcurrentBuilderStage{
		t:      t,
		assert: assert.New(t),
		client: client,
	}

	t.Cleanup(func() {
		for _, pact := range s.pacts {
			_ = pact.Delete()
		}
	})

	return s, s, s
}

func (s *ConcurrentBuilderStage) and() *ConcurrentBuilderStage {
	return s
}

func (s *ConcurrentBuilderStage) n_pacts(n int) *ConcurrentBuilderStage {
	suffix := strconv.FormatInt(time.Now().UnixNano(), 10)
	for i := 0; i < n; i++ {
		pact, err := s.client.NewPact(fmt.Sprintf("consumer-%d-%s", i, suffix), "provider", "V4")
		s.assert.NoError(err)
		s.pacts = append(s.pacts, pact)
	}
	return s
}

func (s *ConcurrentBuilderStage) x_builders_per_pact_add_y_interactions_each(x, y int) *ConcurrentBuilderStage {
	s.concurrentBuilders = x
	s.interactionsPerBuilder = y
	return s
}

func (s *ConcurrentBuilderStage) the_builders_run_concurrently() *ConcurrentBuilderStage {
	wg := sync.WaitGroup{}
	for _, pact := range s.pacts {
		for b := 0; b < s.concurrentBuilders; b++ {
			wg.Add(1)
			go func(pact *pactbuilder.Pact, builder int) {
				defer wg.Done()
				for i := 0; i < s.interactionsPerBuilder; i++ {
					if err := s.buildInteraction(pact, builder, i); err != nil {
						log.Error(err)
						s.failedInteractionsMutex.Lock()
						s.failedInteractions = append(s.failedInteractions, err)
						s.failedInteractionsMutex.Unlock()
					}
				}
			}(pact, b)
		}
	}
	wg.Wait()
	return s
}

func (s *ConcurrentBuilderStage) buildInteraction(pact *pactbuilder.Pact, builder, n int) error {
	interaction, err := pact.AddInteraction(fmt.Sprintf("builder %d interaction %d", builder, n))
	if err != nil {
		return err
	}
	return interaction.WithRequest(pactbuilder.Request{
		Method:  "GET",
		Path:    fmt.Sprintf("/builders/%d/%d", builder, n),
		Headers: map[string][]string{"X-Builder": {strconv.Itoa(builder)}},
	})
}

func (s *ConcurrentBuilderStage) no_builder_failed() *ConcurrentBuilderStage {
	s.assert.Empty(s.failedInteractions)
	return s
}

func (s *ConcurrentBuilderStage) every_pact_has_all_the_interactions() *ConcurrentBuilderStage {
	for _, pact := range s.pacts {
		data, err := pact.JSON()
		s.assert.NoError(err)

		interactions := gjson.GetBytes(data, "interactions").Array()
		s.assert.Len(interactions, s.concurrentBuilders*s.interactionsPerBuilder)
		for _, interaction := range interactions {
			s.assert.NotEqual("/", interaction.Get("request.path").String(), "interaction %s has no request", interaction.Get("description"))
		}
	}
	return s
}
