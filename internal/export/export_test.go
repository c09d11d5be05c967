package export

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/aggregate"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/normalize"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

func sampleBatch() *types.BatchResult {
	records := []types.Record{
		{
			Plate:           "AB123CD",
			FulfillmentDate: "01/02/23",
			FulfillmentTime: "08:15",
			Odometer:        120000,
			Liters:          normalize.DecimalValue(40),
			TotalAmount:     normalize.DecimalValue(70.5),
			Supplier:        types.SupplierIP,
			FuelSupplyType:  types.FuelSupplyExternal,
			ReceiptNumber:   "12345678",
			Locality:        "ROMA NORD",
		},
		{
			Plate:           "UNKNOWN VEHICLE",
			FulfillmentDate: "02/02/23",
			FulfillmentTime: "11:40",
			Odometer:        0,
			Liters:          normalize.RawValue("1,2,3"),
			TotalAmount:     normalize.Value{},
			Supplier:        types.SupplierIP,
			FuelSupplyType:  types.FuelSupplyExternal,
			ReceiptNumber:   "12345680",
			Locality:        "B&B <SUD>",
		},
	}
	c := aggregate.NewCollector()
	c.Add(0, aggregate.Document("march.pdf", time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC), records))
	return c.Result()
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats([]string{"CSV,xlsx", " json ", "csv", ""})
	if err != nil {
		t.Fatalf("ParseFormats: %v", err)
	}
	want := []Format{CSV, XLSX, JSON}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseFormats = %v, want %v", got, want)
	}

	if _, err := ParseFormats([]string{"pdf"}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(CSV, &buf, sampleBatch(), DefaultOptions()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"Plate;FulfillmentDate;FulfillmentTime;Odometer;Liters;TotalAmount;Supplier;FuelSupplyType;ReceiptNumber;Locality",
		"AB123CD;01/02/23;08:15;120000;40.0;70.5;IP;external;12345678;ROMA NORD",
		"UNKNOWN VEHICLE;02/02/23;11:40;0;1,2,3;;IP;external;12345680;B&B <SUD>",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("CSV lines:\n%s\nwant:\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}

func TestWriteCSVCustomDelimiter(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleBatch().Records(), ','); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	// The raw liters value contains the delimiter and must be quoted.
	if !strings.Contains(buf.String(), `,"1,2,3",`) {
		t.Fatalf("expected quoted raw value, got:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(JSON, &buf, sampleBatch(), DefaultOptions()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded struct {
		TotalRecords int     `json:"total_records"`
		TotalAmount  float64 `json:"total_amount"`
		Results      []struct {
			Data []map[string]any `json:"data"`
		} `json:"results"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.TotalRecords != 2 || decoded.TotalAmount != 70.5 {
		t.Fatalf("decoded = %+v", decoded)
	}
	first := decoded.Results[0].Data[0]
	if first["Plate"] != "AB123CD" || first["TotalAmount"] != 70.5 {
		t.Fatalf("first record = %v", first)
	}
	if second := decoded.Results[0].Data[1]; second["TotalAmount"] != "" || second["Liters"] != "1,2,3" {
		t.Fatalf("second record = %v", second)
	}
}

func TestWriteXML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(XML, &buf, sampleBatch(), DefaultOptions()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var doc struct {
		XMLName xml.Name `xml:"fuelRecords"`
		Records []struct {
			N           int    `xml:"n,attr"`
			Plate       string `xml:"Plate"`
			TotalAmount string `xml:"TotalAmount"`
			Locality    string `xml:"Locality"`
		} `xml:"record"`
	}
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid XML: %v\n%s", err, buf.String())
	}
	if len(doc.Records) != 2 || doc.Records[1].N != 2 {
		t.Fatalf("records = %+v", doc.Records)
	}
	if doc.Records[1].Locality != "B&B <SUD>" || doc.Records[1].TotalAmount != "" {
		t.Fatalf("second record = %+v", doc.Records[1])
	}
	if !strings.Contains(buf.String(), "<TotalAmount/>") {
		t.Fatalf("absent amount should self-close:\n%s", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(XLSX, &buf, sampleBatch(), DefaultOptions()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(RecordsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "Plate" || rows[1][0] != "AB123CD" || rows[1][5] != "70.5" {
		t.Fatalf("records sheet = %v", rows)
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(summary) != 3 || summary[1][0] != "march.pdf" || summary[2][0] != "TOTAL" || summary[2][2] != "2" {
		t.Fatalf("summary sheet = %v", summary)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(Format("pdf"), &bytes.Buffer{}, sampleBatch(), DefaultOptions())
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}
