package main

import (
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/Geo-Web-Project/cadastre-sub000/internal/entity"
	"github.com/Geo-Web-Project/cadastre-sub000/internal/flowmath"
	"github.com/Geo-Web-Project/cadastre-sub000/pkg/isqrt"
)

// bigFlag is a pflag.Value holding a base-10 integer of any size.
type bigFlag struct{ v *big.Int }

func newBigFlag() *bigFlag { return &bigFlag{v: new(big.Int)} }

func (f *bigFlag) String() string { return f.v.String() }

func (f *bigFlag) Set(s string) error {
	if _, ok := f.v.SetString(s, 10); !ok {
		return fmt.Errorf("not an integer: %q", s)
	}
	return nil
}

func (f *bigFlag) Type() string { return "int" }

// printAmount prints the raw value and, when decimals > 0, the token amount.
func printAmount(cmd *cobra.Command, name string, x *big.Int, decimals int32) {
	if decimals > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", name, x, flowmath.FormatUnits(x, decimals))
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, x)
}

func atFlag(cmd *cobra.Command, at *int64) {
	cmd.Flags().Int64Var(at, "at", 0, "unix seconds to evaluate at (default now)")
}

func atOrNow(at int64) int64 {
	if at == 0 {
		return time.Now().Unix()
	}
	return at
}

func balanceCmd() *cobra.Command {
	var (
		balance   = newBigFlag()
		flowRate  = newBigFlag()
		updatedAt int64
		at        int64
		decimals  int32
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Extrapolate a streaming balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := entity.Snapshot{Balance: balance.v, UpdatedAt: updatedAt, FlowRate: flowRate.v}
			t := atOrNow(at)
			printAmount(cmd, "balance", flowmath.BalanceAtSecond(s, t), decimals)
			if flowmath.Deficit(s, t*1000) {
				fmt.Fprintln(cmd.OutOrStdout(), "deficit: true")
			}
			if when, ok := flowmath.DepletionTime(s); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "depleted at: %s\n", time.Unix(when, 0).UTC().Format(time.RFC3339))
			}
			printAmount(cmd, "per month", flowmath.PerInterval(flowRate.v, flowmath.Month), decimals)
			return nil
		},
	}
	cmd.Flags().Var(balance, "balance", "balance at updated-at")
	cmd.Flags().Var(flowRate, "flow-rate", "net flow rate per second")
	cmd.Flags().Int64Var(&updatedAt, "updated-at", 0, "unix seconds of the snapshot")
	cmd.Flags().Int32Var(&decimals, "decimals", 18, "token decimals for display, 0 to disable")
	atFlag(cmd, &at)
	return cmd
}

func priceCmd() *cobra.Command {
	var (
		p        entity.FairLaunchAuction
		starting = newBigFlag()
		ending   = newBigFlag()
		at       int64
		decimals int32
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Required bid of the fair launch auction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.StartingBid, p.EndingBid = starting.v, ending.v
			if err := flowmath.ValidateFairLaunch(p); err != nil {
				return err
			}
			printAmount(cmd, "price", flowmath.FairLaunchPrice(p, atOrNow(at)), decimals)
			return nil
		},
	}
	cmd.Flags().Int64Var(&p.Start, "start", 0, "auction start, unix seconds")
	cmd.Flags().Int64Var(&p.End, "end", 0, "auction end, unix seconds")
	cmd.Flags().Var(starting, "starting-bid", "starting bid")
	cmd.Flags().Var(ending, "ending-bid", "ending bid")
	cmd.Flags().Int32Var(&decimals, "decimals", 18, "token decimals for display, 0 to disable")
	atFlag(cmd, &at)
	return cmd
}

func reclaimCmd() *cobra.Command {
	var (
		p        entity.ReclaimAuction
		price    = newBigFlag()
		at       int64
		decimals int32
	)

	cmd := &cobra.Command{
		Use:   "reclaim",
		Short: "Required bid to reclaim a parcel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.ForSalePrice = price.v
			if err := flowmath.ValidateReclaim(p); err != nil {
				return err
			}
			printAmount(cmd, "price", flowmath.ReclaimPrice(p, atOrNow(at)), decimals)
			return nil
		},
	}
	cmd.Flags().Var(price, "for-sale-price", "for sale price at auction start")
	cmd.Flags().Int64Var(&p.AuctionStart, "auction-start", 0, "auction start, unix seconds")
	cmd.Flags().Int64Var(&p.Length, "length", 0, "auction length, seconds")
	cmd.Flags().Int32Var(&decimals, "decimals", 18, "token decimals for display, 0 to disable")
	atFlag(cmd, &at)
	return cmd
}

func impactCmd() *cobra.Command {
	var (
		totalUnits    = newBigFlag()
		totalFlowRate = newBigFlag()
		adjustment    = newBigFlag()
		units         = newBigFlag()
		flowRate      = newBigFlag()
		prev          = newBigFlag()
		next          = newBigFlag()
		decimals      int32
	)

	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Matching impact of a contribution change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool := entity.PoolState{
				TotalUnits:         totalUnits.v,
				TotalFlowRate:      totalFlowRate.v,
				AdjustmentFlowRate: adjustment.v,
			}.Adjusted()
			grantee := entity.MemberState{Units: units.v, FlowRate: flowRate.v}

			impact, err := flowmath.ComputeImpact(pool, grantee, entity.ContributionChange{
				PreviousFlowRate: prev.v,
				NewFlowRate:      next.v,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "prior units: %s\n", impact.PriorUnits)
			fmt.Fprintf(cmd.OutOrStdout(), "new grantee units: %s\n", impact.NewGranteeUnits)
			printAmount(cmd, "new grantee flow rate", impact.NewGranteeFlowRate, decimals)
			printAmount(cmd, "net impact", impact.NetImpact, decimals)
			printAmount(cmd, "net impact per month", flowmath.PerInterval(impact.NetImpact, flowmath.Month), decimals)
			return nil
		},
	}
	cmd.Flags().Var(totalUnits, "total-units", "pool total units")
	cmd.Flags().Var(totalFlowRate, "total-flow-rate", "pool total flow rate")
	cmd.Flags().Var(adjustment, "adjustment-flow-rate", "pool adjustment flow rate, subtracted from the total")
	cmd.Flags().Var(units, "units", "grantee units")
	cmd.Flags().Var(flowRate, "flow-rate", "grantee flow rate")
	cmd.Flags().Var(prev, "previous", "contributor's previous flow rate to the grantee")
	cmd.Flags().Var(next, "new", "contributor's new flow rate to the grantee")
	cmd.Flags().Int32Var(&decimals, "decimals", 18, "token decimals for display, 0 to disable")
	return cmd
}

func sqrtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sqrt <n>",
		Short: "Integer square root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := newBigFlag()
			if err := n.Set(args[0]); err != nil {
				return err
			}
			if n.v.Sign() < 0 {
				return isqrt.ErrNegative
			}
			if n.v.IsUint64() {
				fmt.Fprintln(cmd.OutOrStdout(), isqrt.Sqrt64(n.v.Uint64()))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), isqrt.Sqrt(n.v))
			return nil
		},
	}
}
