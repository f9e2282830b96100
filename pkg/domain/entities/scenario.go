package entities

// DemandKey addresses one demand figure of a demand scenario
type DemandKey struct {
	Retailer RetailerID
	Product  ProductID
	Stage    int
}

// DemandScenario is one possible realisation of demand over the horizon
type DemandScenario struct {
	ID          string
	Probability float64
	Demand      map[DemandKey]float64
}

// DisruptionKey addresses one supplier availability flag
type DisruptionKey struct {
	Supplier SupplierID
	Stage    int
}

// DisruptionScenario is one possible pattern of supplier outages. A true
// flag means the supplier cannot deliver in that stage.
type DisruptionScenario struct {
	ID          string
	Probability float64
	Disrupted   map[DisruptionKey]bool
}
