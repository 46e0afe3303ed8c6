package registry

import (
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/apicall"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/condition"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/delay"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/end"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/loop"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/message"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/setvariable"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/trigger"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/wait"
)

// RegisterDefaultHandlers registers all built-in node handlers with the registry.
func (r *Registry) RegisterDefaultHandlers() {
	r.RegisterHandler(trigger.NewHandler())

	// Outbound messages
	r.RegisterHandler(message.NewTextHandler())
	r.RegisterHandler(message.NewImageHandler())
	r.RegisterHandler(message.NewButtonsHandler())
	r.RegisterHandler(message.NewListHandler())

	r.RegisterHandler(wait.NewHandler())
	r.RegisterHandler(condition.NewHandler())
	r.RegisterHandler(setvariable.NewHandler())
	r.RegisterHandler(apicall.NewHandler())
	r.RegisterHandler(delay.NewHandler())
	r.RegisterHandler(loop.NewHandler())
	r.RegisterHandler(end.NewHandler())
}
