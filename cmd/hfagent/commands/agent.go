package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/hfagents/agent"
	"github.com/sweetpotato0/hfagents/config"
	"github.com/sweetpotato0/hfagents/contrib/provider"
	"github.com/sweetpotato0/hfagents/hub"
	"github.com/sweetpotato0/hfagents/middleware/logger"
	"github.com/sweetpotato0/hfagents/middleware/validator"
	"github.com/sweetpotato0/hfagents/pkg/logging"
	"github.com/sweetpotato0/hfagents/tool"
	"github.com/sweetpotato0/hfagents/tools/hubmodel"
	"github.com/sweetpotato0/hfagents/tools/imagegen"
	"github.com/sweetpotato0/hfagents/tools/webpage"
	"github.com/sweetpotato0/hfagents/tools/websearch"
)

const maxTaskLength = 4000

// toolKit names the tools a command hands to its agent.
type toolKit struct {
	search  bool
	visit   bool
	hub     bool
	imagine bool
}

func allTools() toolKit {
	return toolKit{search: true, visit: true, hub: true, imagine: true}
}

// buildTools constructs the tools in kit. The returned function releases
// the connections they hold.
func buildTools(ctx context.Context, cfg *config.Config, kit toolKit) ([]*tool.Tool, func()) {
	var tools []*tool.Tool
	release := func() {}
	if kit.search {
		tools = append(tools, websearch.New().Tool())
	}
	if kit.visit {
		tools = append(tools, webpage.New(webpage.WithMaxTokens(cfg.Agent.VisitMaxTokens)).Tool())
	}
	if kit.hub {
		client := hub.NewFromConfig(cfg.Hub, cfg.HFToken)
		log := logging.WithComponent("cli")
		if err := client.Ping(ctx); err != nil {
			log.Warn("hub cache unreachable, listings will not be cached", "addr", cfg.Hub.RedisAddr, "error", err)
		}
		release = func() {
			if err := client.Close(); err != nil {
				log.Warn("closing hub cache failed", "error", err)
			}
		}
		tools = append(tools, hubmodel.New(client, hubmodel.WithFallback(cfg.Image.Model)).Tool())
	}
	if kit.imagine {
		tools = append(tools, imagegen.NewFromConfig(cfg).Tool())
	}
	return tools, release
}

func buildAgent(ctx context.Context, cfg *config.Config, kit toolKit) (*agent.Agent, func(), error) {
	if err := cfg.ValidateForAgent(); err != nil {
		return nil, nil, err
	}
	llm, err := provider.New(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	tools, release := buildTools(ctx, cfg, kit)
	log := logging.WithComponent("agent")
	return agent.New(
		agent.WithName("hfagent"),
		agent.WithProvider(llm),
		agent.WithTemperature(cfg.LLM.Temperature),
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithTools(tools...),
		agent.WithMiddlewares(
			validator.NewInputValidator(validator.All(validator.NonEmpty, validator.MaxLength(maxTaskLength))),
			logger.NewRequestLogger(log),
			logger.NewResponseLogger(log),
			validator.NewResponseFilter(validator.TrimResponse),
		),
		agent.WithLogger(log),
	), release, nil
}

// agentCommand builds a command that runs one task through an agent
// equipped with kit. Without arguments the default task is used.
func agentCommand(use, short, defaultTask string, kit toolKit) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [task]",
		Short: short,
		Long:  short + ".\n\nDefault task:\n  " + defaultTask,
		RunE: func(cmd *cobra.Command, args []string) error {
			task := defaultTask
			if len(args) > 0 {
				task = strings.Join(args, " ")
			}

			cfg, done, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			ag, release, err := buildAgent(cmd.Context(), cfg, kit)
			if err != nil {
				return err
			}
			defer release()
			answer, err := ag.Run(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

var (
	searchCmd = agentCommand("search", "Answer a question with web search",
		"how to make a cake?", toolKit{search: true, visit: true})
	visitCmd = agentCommand("visit", "Answer a question by reading web pages",
		"what is birthday of Abraham Lincoln?", toolKit{visit: true})
	hubCmd = agentCommand("hub", "Find the most downloaded Hub model for a task",
		"What is the most downloaded model for text generation on Hugging Face?", toolKit{hub: true})
	imagineCmd = agentCommand("imagine", "Improve a prompt and generate an image from it",
		"Improve this prompt, then generate an image of it. Prompt: A cat wearing a hazmat suit in contaminated area. "+
			"Get the latest model for text-to-image from the Hugging Face Hub.", toolKit{hub: true, imagine: true})
)
