package main

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/itglabs/impact-agent/a2a"
	"github.com/itglabs/impact-agent/a2a/builtin"
	"github.com/itglabs/impact-agent/registry"
)

func registryFromViper(store *registry.Store, log *slog.Logger, card func() any) *a2a.Registry {
	r := a2a.NewRegistry()

	viper.SetDefault("skills.movie_chat.enabled", true)
	viper.SetDefault("skills.inbox.enabled", true)
	viper.SetDefault("skills.feedback.enabled", true)

	r.Register(builtin.NewStatusSkill(viper.GetString("agent.name"), version))
	r.Register(builtin.NewGetAgentCardSkill(card))

	if viper.GetBool("skills.movie_chat.enabled") {
		r.Register(builtin.NewMovieChatSkill())
	}

	if viper.GetBool("skills.feedback.enabled") {
		r.Register(builtin.NewIssueFeedbackAuthSkill(store, log))
		r.Register(builtin.NewProcessValidationRequestSkill(store, log))
		r.Register(builtin.NewCreateFeedbackRequestSkill(store))
		r.Register(builtin.NewGetFeedbackRequestSkill(store))
		r.Register(builtin.NewListFeedbackRequestsSkill(store))
		r.Register(builtin.NewApproveFeedbackRequestSkill(store))
		r.Register(builtin.NewRejectFeedbackRequestSkill(store))
	}

	if viper.GetBool("skills.inbox.enabled") {
		r.Register(builtin.NewSendMessageSkill(store))
		r.Register(builtin.NewListMessagesSkill(store))
		r.Register(builtin.NewGetMessageSkill(store))
		r.Register(builtin.NewMarkMessageReadSkill(store))
		r.Register(builtin.NewDeleteMessageSkill(store))
	}

	return r
}
