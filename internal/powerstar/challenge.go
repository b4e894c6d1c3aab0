package powerstar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

// ChallengeType enumerates the verification steps a star can demand.
type ChallengeType string

const (
	ChallengeConfirm      ChallengeType = "CONFIRM"
	ChallengeDeviceSerial ChallengeType = "DEVICE_SERIAL"
	ChallengePasscode     ChallengeType = "PASSCODE"
	ChallengeTimeLock     ChallengeType = "TIME_LOCK"
	ChallengeDualOperator ChallengeType = "DUAL_OPERATOR"
	ChallengeKnowledge    ChallengeType = "KNOWLEDGE"
)

// Challenge ordering keys. Challenges are sorted by these before being
// attached to a star, so the operator always sees the ritual in the
// same sequence.
const (
	orderConfirm      = 1
	orderDeviceSerial = 2
	orderPasscode     = 3
	orderKnowledge    = 4
	orderDualOperator = 5
	orderTimeLock     = 6
)

// Challenge is one step of the verification ritual. Expected values
// never leave the package; views expose hints only.
type Challenge struct {
	ID          string
	Type        ChallengeType
	Description string
	Order       int

	// Type-specific verification data.
	Expected    string   // DEVICE_SERIAL serial, PASSCODE sha256 hex, KNOWLEDGE correct answer
	Answers     []string // KNOWLEDGE additional accepted answers
	Options     []string // KNOWLEDGE display options
	WaitSeconds int      // TIME_LOCK minimum wall-clock wait
	Hint        string   // operator-facing hint (serial last 4)
}

// verify checks a response against the challenge. The star is needed
// for TIME_LOCK (creation time) and DUAL_OPERATOR (creator identity).
func (c Challenge) verify(star *Star, response any, operator string, now time.Time) (bool, string) {
	switch c.Type {
	case ChallengeConfirm:
		ok, _ := response.(bool)
		if !ok {
			return false, "confirmation requires an explicit true"
		}
		return true, ""

	case ChallengeDeviceSerial:
		s, _ := response.(string)
		if s != c.Expected {
			return false, "serial does not match the connected device"
		}
		return true, ""

	case ChallengePasscode:
		s, _ := response.(string)
		sum := sha256.Sum256([]byte(s))
		// Direct hex comparison; not constant-time. Known timing
		// side-channel, kept to match the verification contract.
		if hex.EncodeToString(sum[:]) != c.Expected {
			return false, "incorrect passcode"
		}
		return true, ""

	case ChallengeTimeLock:
		elapsed := now.Sub(star.CreatedAt)
		wait := time.Duration(c.WaitSeconds) * time.Second
		if elapsed < wait {
			remaining := wait - elapsed
			return false, fmt.Sprintf("time lock active for another %s", remaining.Round(time.Second))
		}
		return true, ""

	case ChallengeKnowledge:
		s, _ := response.(string)
		if s == c.Expected {
			return true, ""
		}
		for _, a := range c.Answers {
			if s == a {
				return true, ""
			}
		}
		return false, "incorrect answer"

	case ChallengeDualOperator:
		if operator == "" || operator == star.CreatedBy {
			return false, "a second operator must countersign"
		}
		return true, ""

	default:
		return false, fmt.Sprintf("unknown challenge type %s", c.Type)
	}
}

// buildChallenges assembles the ordered challenge set for an operation
// spec and request context:
//   - CONFIRM, always
//   - DEVICE_SERIAL when the request carries a device
//   - PASSCODE when the spec pins a passcode hash
//   - KNOWLEDGE and a 30s TIME_LOCK for destructive risk
//   - a 10s TIME_LOCK for high risk
//   - DUAL_OPERATOR when the spec demands a countersigner
func buildChallenges(operation string, spec model.OperationSpec, ctx model.RequestContext) []Challenge {
	var out []Challenge

	out = append(out, Challenge{
		Type:        ChallengeConfirm,
		Order:       orderConfirm,
		Description: fmt.Sprintf("Confirm you intend to run %s", operation),
	})

	if ctx.Device != nil {
		hint := ctx.Device.Serial
		if len(hint) > 4 {
			hint = "…" + hint[len(hint)-4:]
		}
		out = append(out, Challenge{
			Type:        ChallengeDeviceSerial,
			Order:       orderDeviceSerial,
			Description: "Enter the full serial of the target device",
			Expected:    ctx.Device.Serial,
			Hint:        hint,
		})
	}

	if spec.PasscodeSHA256 != "" {
		out = append(out, Challenge{
			Type:        ChallengePasscode,
			Order:       orderPasscode,
			Description: "Enter the operation passcode",
			Expected:    spec.PasscodeSHA256,
		})
	}

	switch spec.Risk {
	case model.RiskHigh:
		out = append(out, Challenge{
			Type:        ChallengeTimeLock,
			Order:       orderTimeLock,
			Description: "Wait 10 seconds before proceeding",
			WaitSeconds: 10,
		})
	case model.RiskDestructive:
		correct, options := knowledgeOptions(operation, spec)
		out = append(out, Challenge{
			Type:        ChallengeKnowledge,
			Order:       orderKnowledge,
			Description: fmt.Sprintf("Select what %s actually does", operation),
			Expected:    correct,
			Options:     options,
		})
		out = append(out, Challenge{
			Type:        ChallengeTimeLock,
			Order:       orderTimeLock,
			Description: "Wait 30 seconds before proceeding",
			WaitSeconds: 30,
		})
	}

	if spec.DualOperator {
		out = append(out, Challenge{
			Type:        ChallengeDualOperator,
			Order:       orderDualOperator,
			Description: "A second operator must complete this step",
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].ID = fmt.Sprintf("chal-%d", i+1)
	}
	return out
}

// knowledgeDistractors are the wrong answers mixed into KNOWLEDGE
// challenges. Deliberately plausible.
var knowledgeDistractors = []string{
	"Reboots the device without touching user data",
	"Creates a full backup of the device",
	"Prints device diagnostics to the log",
}

// knowledgeOptions returns the correct description of the operation and
// a shuffled option set containing it.
func knowledgeOptions(operation string, spec model.OperationSpec) (string, []string) {
	correct := spec.Description
	if correct == "" {
		correct = fmt.Sprintf("Permanently and irreversibly executes %s on the device", operation)
	}

	options := make([]string, 0, len(knowledgeDistractors)+1)
	options = append(options, correct)
	for _, d := range knowledgeDistractors {
		if d != correct {
			options = append(options, d)
		}
	}
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return correct, options
}
