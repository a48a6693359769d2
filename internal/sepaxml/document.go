package sepaxml

import "encoding/xml"

// MessageVersion is the ISO 20022 message written by the exporter.
const MessageVersion = "pain.001.001.03"

// Namespace is the pain.001.001.03 target namespace.
const Namespace = "urn:iso:std:iso:20022:tech:xsd:" + MessageVersion

// Document is the root of a customer credit transfer initiation message.
type Document struct {
	XMLName xml.Name         `xml:"Document"`
	Xmlns   string           `xml:"xmlns,attr"`
	Initn   CstmrCdtTrfInitn `xml:"CstmrCdtTrfInitn"`
}

type CstmrCdtTrfInitn struct {
	GrpHdr GroupHeader          `xml:"GrpHdr"`
	PmtInf []PaymentInformation `xml:"PmtInf"`
}

type GroupHeader struct {
	MsgId    string `xml:"MsgId"`
	CreDtTm  string `xml:"CreDtTm"`
	NbOfTxs  int    `xml:"NbOfTxs"`
	CtrlSum  string `xml:"CtrlSum"`
	InitgPty Party  `xml:"InitgPty"`
}

type PaymentInformation struct {
	PmtInfId    string                 `xml:"PmtInfId"`
	PmtMtd      string                 `xml:"PmtMtd"`
	BtchBookg   bool                   `xml:"BtchBookg"`
	NbOfTxs     int                    `xml:"NbOfTxs"`
	CtrlSum     string                 `xml:"CtrlSum"`
	PmtTpInf    PaymentTypeInformation `xml:"PmtTpInf"`
	ReqdExctnDt string                 `xml:"ReqdExctnDt"`
	Dbtr        Party                  `xml:"Dbtr"`
	DbtrAcct    Account                `xml:"DbtrAcct"`
	DbtrAgt     Agent                  `xml:"DbtrAgt"`
	ChrgBr      string                 `xml:"ChrgBr"`
	CdtTrfTxInf []CreditTransfer       `xml:"CdtTrfTxInf"`
}

type PaymentTypeInformation struct {
	SvcLvl ServiceLevel `xml:"SvcLvl"`
}

type ServiceLevel struct {
	Cd string `xml:"Cd"`
}

type Party struct {
	Nm string `xml:"Nm"`
}

type Account struct {
	Id AccountId `xml:"Id"`
}

type AccountId struct {
	IBAN string `xml:"IBAN"`
}

type Agent struct {
	FinInstnId FinancialInstitution `xml:"FinInstnId"`
}

// FinancialInstitution carries a BIC, or the "NOTPROVIDED" marker when the
// debtor agent is unknown.
type FinancialInstitution struct {
	BIC  string      `xml:"BIC,omitempty"`
	Othr *OtherFinId `xml:"Othr,omitempty"`
}

type OtherFinId struct {
	Id string `xml:"Id"`
}

type CreditTransfer struct {
	PmtId    PaymentId              `xml:"PmtId"`
	Amt      Amount                 `xml:"Amt"`
	CdtrAgt  *Agent                 `xml:"CdtrAgt,omitempty"`
	Cdtr     Party                  `xml:"Cdtr"`
	CdtrAcct Account                `xml:"CdtrAcct"`
	RmtInf   *RemittanceInformation `xml:"RmtInf,omitempty"`
}

type PaymentId struct {
	EndToEndId string `xml:"EndToEndId"`
}

type Amount struct {
	InstdAmt InstructedAmount `xml:"InstdAmt"`
}

type InstructedAmount struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

type RemittanceInformation struct {
	Ustrd string `xml:"Ustrd"`
}
