package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"coursesynth.app/api/common/llm"
	"coursesynth.app/api/internal/agent"
	"coursesynth.app/api/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeAgentClient struct {
	content string
	err     error
}

func (f *fakeAgentClient) ChatWithTools(ctx context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.AgentResponse{Content: f.content}, nil
}

func TestRunImageEnforcesHTTPSOrFallsBack(t *testing.T) {
	o := &Orchestrator{}

	httpsAgent := agent.NewStandardAgent(&fakeAgentClient{content: "https://example.com/cover.png"}, "", agent.RetryConfig{MaxRetries: 0})
	o.agents.Image = httpsAgent
	url := o.runImage(context.Background(), agent.Session{}, "prompt")
	require.Equal(t, "https://example.com/cover.png", url)

	httpAgent := agent.NewStandardAgent(&fakeAgentClient{content: "http://insecure.example.com/cover.png"}, "", agent.RetryConfig{MaxRetries: 0})
	o.agents.Image = httpAgent
	url = o.runImage(context.Background(), agent.Session{}, "prompt")
	require.Equal(t, fallbackImageURL, url)

	emptyAgent := agent.NewStandardAgent(&fakeAgentClient{content: ""}, "", agent.RetryConfig{MaxRetries: 0})
	o.agents.Image = emptyAgent
	url = o.runImage(context.Background(), agent.Session{}, "prompt")
	require.Equal(t, fallbackImageURL, url)
}

func TestSummaryFromBulletsCapsAtThree(t *testing.T) {
	require.Equal(t, "a\nb\nc", summaryFromBullets([]string{"a", "b", "c", "d", "e"}))
	require.Equal(t, "a\nb", summaryFromBullets([]string{"a", "b"}))
}

func TestRunExplainerFallsBackWhenAgentFails(t *testing.T) {
	o := &Orchestrator{}
	o.agents.Explainer = agent.NewStandardAgent(&fakeAgentClient{err: errBoom}, "", agent.RetryConfig{MaxRetries: 0})
	source := o.runExplainer(context.Background(), agent.Session{}, model.ChapterPlan{Caption: "Intro"}, nil)
	require.Equal(t, fallbackComponentSource, source)
}

var errBoom = fmt.Errorf("boom")
