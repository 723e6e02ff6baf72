/*

This file contains the named engine profiles.

Each profile is a full FeeParameters value derived from the baseline. The
original controller family shipped as parallel variants of one skeleton; here
a variant is nothing more than a profile name.

*/

package config

import (
	"fmt"
	"sort"

	"github.com/openamm/afe/internal/types"
	"github.com/openamm/afe/internal/wadmath"
)

// Profile names accepted by EngineProfile / the ENGINE_PROFILE variable.
const (
	ProfileBaseline       = "baseline"
	ProfileConservative   = "conservative"
	ProfileTurbulent      = "turbulent"
	ProfileDualAnchor     = "dual_anchor"
	ProfileAgreementGated = "agreement_gated"
	ProfileHighThroughput = "high_throughput"
)

// FeeProfiles maps profile names to complete parameter sets.
var FeeProfiles = map[string]types.FeeParameters{
	ProfileBaseline: DefaultFeeParameters,

	// conservative: tighter bounds and slower movement, for pools holding
	// long-tail assets where the operator prefers stable quoting.
	ProfileConservative: func() types.FeeParameters {
		p := DefaultFeeParameters
		p.MaxFee = wadmath.FromBps(200)
		p.MaxSideDiff = wadmath.FromBps(60)
		p.SlewUpBase = wadmath.FromBps(3)
		p.SlewUpStressCoef = wadmath.FromBps(6)
		p.SlewDownBase = wadmath.FromBps(2)
		p.PriceAlphaRetail = permille(50)
		p.MidFeeCap = wadmath.FromBps(150)
		p.TailKnee = wadmath.FromBps(100)
		return p
	}(),

	// turbulent: wider ceilings and faster slew for volatile pairs where the
	// cost of quoting stale fees dominates the cost of moving them.
	ProfileTurbulent: func() types.FeeParameters {
		p := DefaultFeeParameters
		p.MaxFee = wadmath.FromBps(500)
		p.MidFeeCap = wadmath.FromBps(350)
		p.SlewUpBase = wadmath.FromBps(10)
		p.SlewUpStressCoef = wadmath.FromBps(20)
		p.SlewDownBase = wadmath.FromBps(5)
		p.StressGuardCoef = wadmath.FromBps(100)
		p.LiqCeilBase = wadmath.FromBps(200)
		p.LiqCeilMax = wadmath.FromBps(400)
		p.TailKnee = wadmath.FromBps(250)
		return p
	}(),

	// dual_anchor: adds a slow price anchor so toxicity is measured against a
	// belief that single bursts cannot drag along.
	ProfileDualAnchor: func() types.FeeParameters {
		p := DefaultFeeParameters
		p.UseDualAnchor = true
		p.ToxAlphaFirst = permille(300)
		return p
	}(),

	// agreement_gated: directional and adverse terms are damped unless at
	// least two signals clear their deadbands simultaneously.
	ProfileAgreementGated: func() types.FeeParameters {
		p := DefaultFeeParameters
		p.UseAgreementGate = true
		p.AgreementMinSignals = 2
		return p
	}(),

	// high_throughput: for pools with dense flow, where per-trade information
	// content is low and the rate signal carries more of the decision.
	ProfileHighThroughput: func() types.FeeParameters {
		p := DefaultFeeParameters
		p.ToxAlphaFollow = permille(30)
		p.VolAlphaFollow = permille(30)
		p.FlowRateSpan = wadmath.Wad.MulRaw(40)
		p.FlowRateFeeCoef = wadmath.FromBps(1)
		p.StepTradeCountCap = 512
		return p
	}(),
}

// ProfileByName returns the parameter set for a profile name.
func ProfileByName(name string) (types.FeeParameters, error) {
	p, ok := FeeProfiles[name]
	if !ok {
		return types.FeeParameters{}, fmt.Errorf("unknown engine profile %q (known: %v)", name, ProfileNames())
	}
	return p, nil
}

// ProfileNames returns the sorted list of known profile names.
func ProfileNames() []string {
	names := make([]string, 0, len(FeeProfiles))
	for name := range FeeProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
