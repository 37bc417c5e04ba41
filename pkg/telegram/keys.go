package telegram

// OBIS codes the aggregation engine reads.
const (
	KeyVersion        = "1-3:0.2.8"
	KeyTimestamp      = "0-0:1.0.0"
	KeyEnergyInT1     = "1-0:1.8.1"
	KeyEnergyInT2     = "1-0:1.8.2"
	KeyEnergyOutT1    = "1-0:2.8.1"
	KeyEnergyOutT2    = "1-0:2.8.2"
	KeyTariff         = "0-0:96.14.0"
	KeyPowerIn        = "1-0:1.7.0"
	KeyPowerOut       = "1-0:2.7.0"
	KeyGasCaptureTime = "0-1:24.2.1.A"
	KeyGasReading     = "0-1:24.2.1.B"
	KeyEquipmentID    = "0-0:96.1.1"
	KeyGasEquipmentID = "0-1:96.1.0"
	KeyHeaderField    = "header"
	KeyChecksumField  = "checksum"
)

// DetailKeys is the fixed column order of the detail export.
var DetailKeys = []string{
	"1-3:0.2.8", "0-0:1.0.0", "0-0:96.1.1", "1-0:1.8.1", "1-0:1.8.2", "1-0:2.8.1", "1-0:2.8.2", "0-0:96.14.0",
	"1-0:1.7.0", "1-0:2.7.0", "0-0:96.7.21", "0-0:96.7.9", "1-0:99.97.0", "1-0:32.32.0", "1-0:52.32.0",
	"1-0:72.32.0", "1-0:32.36.0", "1-0:52.36.0", "1-0:72.36.0", "0-0:96.13.0", "1-0:32.7.0", "1-0:52.7.0",
	"1-0:72.7.0", "1-0:31.7.0", "1-0:51.7.0", "1-0:71.7.0", "1-0:21.7.0", "1-0:41.7.0", "1-0:61.7.0",
	"1-0:22.7.0", "1-0:42.7.0", "1-0:62.7.0", "0-1:24.1.0", "0-1:96.1.0", "0-1:24.2.1.A", "0-1:24.2.1.B",
}

// FriendlyNames labels DetailKeys in the second header row of the detail export.
var FriendlyNames = map[string]string{
	"1-3:0.2.8":    "version",
	"0-0:1.0.0":    "timestamp",
	"0-0:96.1.1":   "equipment id",
	"1-0:1.8.1":    "elec. in, t1",
	"1-0:1.8.2":    "elec. in, t2",
	"1-0:2.8.1":    "elec. out, t1",
	"1-0:2.8.2":    "elec. out, t2",
	"0-0:96.14.0":  "tariff",
	"1-0:1.7.0":    "power in",
	"1-0:2.7.0":    "power out",
	"0-0:96.7.21":  "# power failures",
	"0-0:96.7.9":   "# long power failures",
	"1-0:99.97.0":  "failure timestamp - duration",
	"1-0:32.32.0":  "voltage sags L1",
	"1-0:52.32.0":  "voltage sags L2",
	"1-0:72.32.0":  "voltage sags L3",
	"1-0:32.36.0":  "voltage swells L1",
	"1-0:52.36.0":  "voltage swells L2",
	"1-0:72.36.0":  "voltage swells L3",
	"0-0:96.13.0":  "text message",
	"1-0:32.7.0":   "voltage L1",
	"1-0:52.7.0":   "voltage L2",
	"1-0:72.7.0":   "voltage L3",
	"1-0:31.7.0":   "current L1",
	"1-0:51.7.0":   "current L2",
	"1-0:71.7.0":   "current L3",
	"1-0:21.7.0":   "power in L1",
	"1-0:41.7.0":   "power in L2",
	"1-0:61.7.0":   "power in L3",
	"1-0:22.7.0":   "power out L1",
	"1-0:42.7.0":   "power out L2",
	"1-0:62.7.0":   "power out L3",
	"0-1:24.1.0":   "device type",
	"0-1:96.1.0":   "equipment ID",
	"0-1:24.2.1.A": "Gas meting tijd",
	"0-1:24.2.1.B": "Gas meting",
}
