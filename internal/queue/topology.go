package queue

import "CareOnboard/storage/mq"

const (
	EventsExchange            = "onboarding.events"
	DeadLetterExchange        = "onboarding.events.dlx"
	ApplicationSubmittedQueue = "onboarding.application.submitted"
	ApplicationSubmittedKey   = "onboarding.application.submitted"
)

// DeclareTopology server 和 worker 启动时都会调用，重复声明无副作用
func DeclareTopology() error {
	return mq.Declare(mq.Topology{
		Exchange:   EventsExchange,
		Queue:      ApplicationSubmittedQueue,
		RoutingKey: ApplicationSubmittedKey,
		DeadLetter: DeadLetterExchange,
	})
}
