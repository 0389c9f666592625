package ccrecorder

import "github.com/SpotlightKid/midiomatic/pkg/framework/param"

// Parameter IDs
const (
	ParamRecord uint32 = iota
	ParamClear
	ParamSend
	ParamTransportTrigger
	ParamPCTriggerChannel
	ParamPCTriggerProgram
	ParamSendChannel
	ParamSendInterval
)

// DefaultSendIntervalMs is the default spacing of replayed events.
const DefaultSendIntervalMs = 1

func registerParameters(r *param.Registry) error {
	return r.Add(
		param.New(ParamRecord, "Record").
			Symbol("rec_enable").
			ShortName("Rec").
			Toggle().
			Build(),

		param.New(ParamClear, "Clear").
			Symbol("trig_clear").
			Trigger().
			Build(),

		param.New(ParamSend, "Send").
			Symbol("trig_send").
			Trigger().
			Build(),

		param.Choice(ParamTransportTrigger, "Transport Trigger", []param.ChoiceOption{
			{Value: float64(TransportDisabled), Name: TransportDisabled.String(), Aliases: []string{"off"}},
			{Value: float64(TransportAlways), Name: TransportAlways.String(), Aliases: []string{"on"}},
			{Value: float64(TransportAtZero), Name: TransportAtZero.String(), Aliases: []string{"zero"}},
		}).
			Symbol("trig_transport").
			Build(),

		param.ChannelFilterParameter(ParamPCTriggerChannel, "PC Trigger Channel", "Any", "Disabled").
			Symbol("trig_pc_channel").
			Default(ProgramFilterDisabled).
			Build(),

		param.ProgramParameter(ParamPCTriggerProgram, "PC Trigger Program").
			Symbol("trig_pc_program").
			Build(),

		param.ChannelFilterParameter(ParamSendChannel, "Send Channel", "All").
			Symbol("send_channel").
			Build(),

		param.TimeParameter(ParamSendInterval, "Send Interval", 1, 200, DefaultSendIntervalMs).
			Symbol("send_interval").
			Build(),
	)
}

// settings is the per-block snapshot of the parameter values.
type settings struct {
	record     bool
	clear      bool
	send       bool
	transport  TransportMode
	pcChannel  int
	pcProgram  int
	sendFilter int // AllChannels or 0-15
	intervalMs int
}
