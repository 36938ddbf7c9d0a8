package statemachine

import "grocery-marketplace-api/models"

// Applications is the driver application review lifecycle. Only pending
// applications can be decided; approved and rejected are terminal.
var Applications = New("application",
	Transition[models.ApplicationStatus]{From: models.ApplicationPending, To: models.ApplicationApproved, Actor: ActorAdmin},
	Transition[models.ApplicationStatus]{From: models.ApplicationPending, To: models.ApplicationRejected, Actor: ActorAdmin},
)

// Orders is the order fulfilment lifecycle
var Orders = New("order",
	// Supplier or admin starts fulfilment
	Transition[models.OrderStatus]{From: models.OrderPending, To: models.OrderProcessing, Actor: ActorSupplier},
	Transition[models.OrderStatus]{From: models.OrderPending, To: models.OrderProcessing, Actor: ActorAdmin},
	// Customer can cancel only before fulfilment starts
	Transition[models.OrderStatus]{From: models.OrderPending, To: models.OrderCancelled, Actor: ActorCustomer},
	Transition[models.OrderStatus]{From: models.OrderPending, To: models.OrderCancelled, Actor: ActorAdmin},
	Transition[models.OrderStatus]{From: models.OrderProcessing, To: models.OrderCancelled, Actor: ActorAdmin},
	// Shipping and delivery
	Transition[models.OrderStatus]{From: models.OrderProcessing, To: models.OrderShipped, Actor: ActorSupplier},
	Transition[models.OrderStatus]{From: models.OrderProcessing, To: models.OrderShipped, Actor: ActorAdmin},
	Transition[models.OrderStatus]{From: models.OrderShipped, To: models.OrderDelivered, Actor: ActorAdmin},
)
