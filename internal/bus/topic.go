package bus

import "fmt"

// CommandTopic returns the per-gateway command topic a gateway device
// listens on, §6: command/{application}/{gateway}/btmesh.
func CommandTopic(application, gateway string) string {
	return fmt.Sprintf("command/%s/%s/btmesh", application, gateway)
}

// EventTopic returns the application event-stream topic the ingester
// subscribes to. When groupID is non-empty the shared-subscription
// form is used so competing replicas partition the stream; otherwise
// the exclusive form, §4.F/§6.
func EventTopic(application, groupID string) string {
	if groupID != "" {
		return fmt.Sprintf("$shared/%s/app/%s", groupID, application)
	}
	return fmt.Sprintf("app/%s", application)
}
