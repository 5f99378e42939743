package extractor

// Options tunes which impl blocks count as contract code and how events are recognised.
type Options struct {
	// ContractAttributes marks an impl block as contract code, e.g. near_bindgen.
	ContractAttributes []string
	// EventMacros are macro names whose invocation makes a function an event.
	EventMacros []string
	// IncludeAllImpls keeps impl blocks without a contract attribute.
	IncludeAllImpls bool
}

// DefaultOptions matches near-sdk contracts.
func DefaultOptions() Options {
	return Options{
		ContractAttributes: []string{"near_bindgen", "near"},
		EventMacros:        []string{"log", "emit"},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.ContractAttributes) == 0 {
		o.ContractAttributes = d.ContractAttributes
	}
	if len(o.EventMacros) == 0 {
		o.EventMacros = d.EventMacros
	}
	return o
}
