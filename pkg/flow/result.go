package flow

// Result is the uniform value delivered to the caller for every
// provider and every flow kind.
type Result struct {
	Provider string                 `json:"provider"`
	Data     map[string]interface{} `json:"data"`
}

// normalizeResult wraps a provider name and payload into a Result. It
// has no side effects; failed upstream values never reach it.
func normalizeResult(provider string, data map[string]interface{}) Result {
	return Result{Provider: provider, Data: data}
}

// Callbacks is the caller-facing contract of both flow controllers.
// OnLoginStart, when set, fires before any network activity begins.
type Callbacks struct {
	OnLoginStart func()
	OnResolve    func(Result)
	OnReject     func(error)
}

func (c Callbacks) loginStart() {
	if c.OnLoginStart != nil {
		c.OnLoginStart()
	}
}

func (c Callbacks) resolve(res Result) {
	if c.OnResolve != nil {
		c.OnResolve(res)
	}
}

func (c Callbacks) reject(err error) {
	if c.OnReject != nil {
		c.OnReject(err)
	}
}
