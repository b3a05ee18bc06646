package dispatchservice

import (
	"context"
	"log/slog"
	"time"

	httpadapter "herald/contexts/outreach/dispatch-service/adapters/http"
	"herald/contexts/outreach/dispatch-service/adapters/memory"
	"herald/contexts/outreach/dispatch-service/application/commands"
	"herald/contexts/outreach/dispatch-service/application/dispatch"
	"herald/contexts/outreach/dispatch-service/application/queries"
	"herald/contexts/outreach/dispatch-service/application/workers"
	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/contexts/outreach/dispatch-service/ports"
)

type Module struct {
	Handler          httpadapter.Handler
	Engine           *dispatch.Engine
	ScheduledStarter workers.ScheduledStarter
	OutboxRelay      workers.OutboxRelay

	// In-memory fakes, populated only by NewInMemoryModule.
	Store     *memory.Store
	Clock     *memory.Clock
	Sleeper   *memory.Sleeper
	Connector *memory.Connector
}

type Dependencies struct {
	Campaigns   ports.CampaignRepository
	Sessions    ports.SessionRepository
	Members     ports.MemberRepository
	Results     ports.ResultRepository
	Connector   ports.MessengerConnector
	Clock       ports.Clock
	Sleeper     ports.Sleeper
	IDGenerator ports.IDGenerator
	Outbox      ports.OutboxWriter
	OutboxRepo  ports.OutboxRepository
	Publisher   ports.EventPublisher
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	engine := &dispatch.Engine{
		Campaigns: deps.Campaigns,
		Members:   deps.Members,
		Results:   deps.Results,
		Connector: deps.Connector,
		Clock:     deps.Clock,
		Sleeper:   deps.Sleeper,
		IDGen:     deps.IDGenerator,
		Outbox:    deps.Outbox,
		Logger:    deps.Logger,
	}

	createCampaign := commands.CreateCampaignUseCase{
		Campaigns:   deps.Campaigns,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	startCampaign := commands.StartCampaignUseCase{
		Campaigns: deps.Campaigns,
		Sessions:  deps.Sessions,
		Engine:    engine,
		Logger:    deps.Logger,
	}
	pauseCampaign := commands.PauseCampaignUseCase{
		Campaigns: deps.Campaigns,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	registerSession := commands.RegisterSessionUseCase{
		Sessions:    deps.Sessions,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	deactivateSession := commands.DeactivateSessionUseCase{
		Sessions: deps.Sessions,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	importMembers := commands.ImportMembersUseCase{
		Members:     deps.Members,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}

	getCampaign := queries.GetCampaignUseCase{
		Campaigns: deps.Campaigns,
		Logger:    deps.Logger,
	}
	getProgress := queries.GetProgressUseCase{
		Campaigns: deps.Campaigns,
		Logger:    deps.Logger,
	}
	listCampaigns := queries.ListCampaignsUseCase{
		Campaigns: deps.Campaigns,
		Logger:    deps.Logger,
	}
	listSessions := queries.ListSessionsUseCase{
		Sessions: deps.Sessions,
		Logger:   deps.Logger,
	}
	listResults := queries.ListResultsUseCase{
		Results: deps.Results,
		Logger:  deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateCampaign:    createCampaign,
			StartCampaign:     startCampaign,
			PauseCampaign:     pauseCampaign,
			RegisterSession:   registerSession,
			DeactivateSession: deactivateSession,
			ImportMembers:     importMembers,
			GetCampaign:       getCampaign,
			GetProgress:       getProgress,
			ListCampaigns:     listCampaigns,
			ListSessions:      listSessions,
			ListResults:       listResults,
			Logger:            deps.Logger,
		},
		Engine: engine,
		ScheduledStarter: workers.ScheduledStarter{
			Campaigns: deps.Campaigns,
			Start:     startCampaign,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory fakes. The fake
// clock starts at the provided instant; the sleeper advances it instead of
// blocking, so campaign runs complete instantly under test.
func NewInMemoryModule(seed []entities.Campaign, start time.Time, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	clock := memory.NewClock(start)
	sleeper := memory.NewSleeper(clock)
	connector := memory.NewConnector()
	module := NewModule(Dependencies{
		Campaigns:   store,
		Sessions:    store,
		Members:     store,
		Results:     store,
		Connector:   connector,
		Clock:       clock,
		Sleeper:     sleeper,
		IDGenerator: store,
		Outbox:      store,
		OutboxRepo:  store,
		Publisher:   nopPublisher{},
		Logger:      logger,
	})
	module.Store = store
	module.Clock = clock
	module.Sleeper = sleeper
	module.Connector = connector
	return module
}

type nopPublisher struct{}

func (nopPublisher) Publish(_ context.Context, _ string, _ ports.EventEnvelope) error { return nil }
