// Package bloc provides a reactive event-to-state container.
//
// The core type is Bloc, which ingests events, transforms them into state
// transitions through a single ordered processing loop, and broadcasts
// committed states to any number of subscribers.
//
// # Bloc
//
// A Bloc binds an event sequence to a state sequence via a user handler:
//
//	Add(event) → queue → handler → Transition → pipeline → commit → broadcast
//
// Events are processed strictly in submission order, one at a time. A
// handler may emit zero or more states per event; every emission flows
// through the transition pipeline before the terminal stage commits it and
// publishes it on the broadcast stream.
//
// # Usage
//
//	type CounterEvent int
//
//	const (
//	    Increment CounterEvent = iota
//	    Decrement
//	)
//
//	counter := bloc.New[CounterEvent, int](0,
//	    func(ctx context.Context, ev CounterEvent, emit bloc.Emit[int]) error {
//	        switch ev {
//	        case Increment:
//	            emit(counter.State() + 1)
//	        case Decrement:
//	            emit(counter.State() - 1)
//	        }
//	        return nil
//	    },
//	)
//
//	if err := counter.Start(ctx); err != nil {
//	    return err
//	}
//	defer counter.Close()
//
//	states := counter.Stream().Subscribe(ctx)
//	counter.Add(Increment)
//
// # Streams
//
// Stream is a lazy broadcast view: each Subscribe call yields an
// independent consumer receiving only states committed after it
// subscribed. Free-function operators compose narrowed views without
// consuming the source:
//
//	errors := bloc.Narrow[ErrorState](b.Stream())
//	distinct := bloc.NarrowUnique[LoadedState](b.Stream())
//	big := bloc.NarrowWhere(b.Stream(), func(s LoadedState) bool {
//	    return s.Count > 10
//	})
//
// # Observation
//
// An Observer installed on a context receives lifecycle notifications
// (create, event, transition, change, error, close) from every container
// started within that scope; nested scopes shadow outer ones:
//
//	ctx = bloc.WithObserver(ctx, auditObserver)
//	b := bloc.New[Event, State](initial, handler)
//	_ = b.Start(ctx)
//
// Containers also emit capitan signals (BlocCreated, BlocEventAdded,
// BlocTransition, BlocStateChanged, BlocErrored, BlocClosed) that hosts
// can hook without touching container code.
//
// # Pipeline
//
// Options configure the transition pipeline with pipz processors:
//
//	b := bloc.New[Event, State](initial, handler,
//	    bloc.WithRetry[Event, State](3),
//	    bloc.WithTimeout[Event, State](5*time.Second),
//	)
//
// # Error handling
//
// Failures from handlers, pipelines, and observer hooks are routed to the
// error path: recorded (LastError, ErrorHistory), reported to the
// observer, and emitted as BlocErrored. Subscribers of the state stream
// never see errors on the data path. Containers configured with Debug()
// additionally panic with *UnhandledError so development builds fail
// loudly; production containers degrade gracefully.
//
// # Sources
//
// The Source interface adapts external feeds into event channels.
// ChannelSource wraps an existing channel, FileSource decodes file writes
// via fsnotify, and pkg/redis feeds events from Redis pub/sub:
//
//	src := bloc.NewFileSource[Event]("/var/run/events.json")
//	go bloc.Bind(ctx, b, src)
package bloc
