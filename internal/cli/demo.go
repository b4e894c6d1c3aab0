package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/authority"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/powerstar"
)

func init() {
	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk the factory.reset ritual against a local gate",
	Long:  "Runs an in-process routing decision and the full power-star challenge sequence for factory.reset, printing each step. Nothing touches a real device.",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	router := authority.NewRouter(authority.DefaultRoutes())
	stars := powerstar.NewManager()

	ctx := model.RequestContext{
		Role:     model.RoleOwner,
		Device:   &model.Device{ID: "demo-device", Mode: "adb", Serial: "DEMO1234"},
		Operator: &model.Operator{ID: "demo-operator", Verified: true},
	}

	fmt.Println("1. Routing decision")
	decision := router.Route("factory.reset", ctx)
	fmt.Printf("   domain=%s category=%s requires_confirmation=%t\n",
		decision.Domain, decision.Category, decision.RequiresConfirmation)
	if !decision.Success {
		return fmt.Errorf("route denied: %s", decision.Reason)
	}

	spec := model.OperationSpec{
		Name:         "factory.reset",
		Description:  "Erases all user data and restores factory firmware",
		Category:     model.CategoryDestructive,
		Risk:         model.RiskDestructive,
		AllowedRoles: []model.Role{model.RoleOwner, model.RoleAdmin},
	}

	fmt.Println("2. Requesting power star")
	requested := stars.RequestStar("factory.reset", spec, ctx)
	if requested.Star == nil {
		return fmt.Errorf("star denied: %s", requested.Reason)
	}
	star := requested.Star
	fmt.Printf("   %s expires in %ds, %d challenges\n",
		star.ID, star.ExpiresIn/1000, len(star.Challenges))

	fmt.Println("3. Completing challenges")
	for _, c := range star.Challenges {
		var response any
		switch c.Type {
		case powerstar.ChallengeConfirm:
			response = true
		case powerstar.ChallengeDeviceSerial:
			response = "DEMO1234"
		case powerstar.ChallengeKnowledge:
			response = spec.Description
		case powerstar.ChallengeTimeLock:
			fmt.Printf("   %-13s waiting %ds...\n", c.Type, c.WaitSeconds)
			time.Sleep(time.Duration(c.WaitSeconds) * time.Second)
			response = true
		}

		result := stars.CompleteChallenge(star.ID, c.ID, response, "demo-operator")
		if !result.Success {
			fmt.Fprintf(os.Stderr, "   %-13s FAILED: %s\n", c.Type, result.Reason)
			return fmt.Errorf("ritual failed at %s", c.ID)
		}
		fmt.Printf("   %-13s ok (%d remaining)\n", c.Type, result.Remaining)
	}

	fmt.Println("4. Verifying and consuming")
	if v := stars.VerifyStar(star.ID, "factory.reset", "DEMO1234"); !v.Valid {
		return fmt.Errorf("verify failed: %s", v.Reason)
	}
	consumed := stars.ConsumeStar(star.ID)
	if !consumed.Success {
		return fmt.Errorf("consume failed: %s", consumed.Reason)
	}
	fmt.Printf("   consumed; trail has %d events\n", len(consumed.Trail))

	fmt.Println("5. Replay check")
	if again := stars.ConsumeStar(star.ID); again.Success {
		return fmt.Errorf("star consumed twice")
	}
	fmt.Println("   second consume correctly refused")
	return nil
}
