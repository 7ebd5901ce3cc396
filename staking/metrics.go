// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/levrprotocol/levr/metrics"

var (
	metricStakeCount     = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("staking_stake_count") })
	metricUnstakeCount   = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("staking_unstake_count") })
	metricClaimCount     = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("staking_claim_count") })
	metricShortfallCount = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("staking_claim_shortfall_count") })
	metricCreditCount    = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("staking_credit_count", []string{"token"})
	})
	metricCleanupCount     = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("staking_cleanup_count") })
	metricTotalStakedGauge = metrics.LazyLoad(func() metrics.GaugeMeter { return metrics.Gauge("staking_total_staked_gauge") })
)
